// Package service 包含了应用的业务逻辑层。
package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"unicode"

	"ivabot-go/pkg/embedding"
	"ivabot-go/pkg/log"
)

// Intent 是意图路由的分类结果。
type Intent string

const (
	IntentWeather    Intent = "weather"
	IntentTime       Intent = "time"
	IntentGreeting   Intent = "greeting"
	IntentDefaultLLM Intent = "default_llm"
)

// DefaultThreshold 是语义路由的最低相似度，分数必须严格大于它。
const DefaultThreshold = 0.45

type route struct {
	intent   Intent
	examples []string
	keywords []string
}

// routes 的顺序决定同分时的优先级。
var routes = []route{
	{
		intent:   IntentWeather,
		examples: []string{"what is the weather like", "is it raining outside", "temperature today"},
		keywords: []string{"weather", "raining", "rain", "temperature", "forecast", "sunny", "snowing"},
	},
	{
		intent:   IntentTime,
		examples: []string{"calculate this", "what is the square root", "sum of these numbers"},
		keywords: []string{"calculate", "square", "root", "sum"},
	},
	{
		intent:   IntentGreeting,
		examples: []string{"hello", "hi there", "good morning", "hey"},
		keywords: []string{"hello", "hi", "hey", "morning"},
	},
}

// IntentRouter 把用户输入分类到某个意图。
type IntentRouter interface {
	Classify(ctx context.Context, userInput string) Intent
}

type intentRouter struct {
	embedder  embedding.Client
	threshold float64

	mu       sync.Mutex
	examples map[Intent][][]float32
}

// NewIntentRouter 创建意图路由器。embedder 为 nil 时只使用关键词匹配。
func NewIntentRouter(embedder embedding.Client, threshold float64) IntentRouter {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &intentRouter{embedder: embedder, threshold: threshold}
}

// Classify 优先使用向量相似度，失败时退回关键词匹配。
func (r *intentRouter) Classify(ctx context.Context, userInput string) Intent {
	if r.embedder != nil {
		intent, score, err := r.classifySemantic(ctx, userInput)
		if err == nil {
			log.Infow("Classified intent", "intent", intent, "score", score, "input", userInput)
			return intent
		}
		log.Warnf("语义路由失败，使用关键词匹配: %v", err)
	}
	intent := classifyKeywords(userInput)
	log.Infow("Classified intent", "intent", intent, "input", userInput, "mode", "keyword")
	return intent
}

func (r *intentRouter) classifySemantic(ctx context.Context, userInput string) (Intent, float64, error) {
	examples, err := r.exampleEmbeddings(ctx)
	if err != nil {
		return "", 0, err
	}
	vecs, err := r.embedder.CreateEmbeddings(ctx, []string{userInput})
	if err != nil {
		return "", 0, fmt.Errorf("failed to embed query: %w", err)
	}

	best, highest := IntentDefaultLLM, 0.0
	for _, rt := range routes {
		for _, ex := range examples[rt.intent] {
			if score := cosine(vecs[0], ex); score > highest {
				highest = score
				best = rt.intent
			}
		}
	}
	if highest > r.threshold {
		return best, highest, nil
	}
	return IntentDefaultLLM, highest, nil
}

// exampleEmbeddings 首次调用时计算示例向量，失败时下次重试。
func (r *intentRouter) exampleEmbeddings(ctx context.Context) (map[Intent][][]float32, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.examples != nil {
		return r.examples, nil
	}

	var texts []string
	for _, rt := range routes {
		texts = append(texts, rt.examples...)
	}
	vecs, err := r.embedder.CreateEmbeddings(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed route examples: %w", err)
	}

	examples := make(map[Intent][][]float32, len(routes))
	i := 0
	for _, rt := range routes {
		examples[rt.intent] = vecs[i : i+len(rt.examples)]
		i += len(rt.examples)
	}
	r.examples = examples
	return examples, nil
}

func classifyKeywords(userInput string) Intent {
	words := strings.FieldsFunc(strings.ToLower(userInput), func(c rune) bool {
		return !unicode.IsLetter(c)
	})
	seen := make(map[string]bool, len(words))
	for _, w := range words {
		seen[w] = true
	}
	for _, rt := range routes {
		for _, kw := range rt.keywords {
			if seen[kw] {
				return rt.intent
			}
		}
	}
	return IntentDefaultLLM
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
