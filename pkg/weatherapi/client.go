// Package weatherapi 提供 OpenWeatherMap 当前天气接口的客户端。
package weatherapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	owm "github.com/briandowns/openweathermap"

	"ivabot-go/internal/config"
	"ivabot-go/internal/model"
)

// Client 查询城市的当前天气。
type Client interface {
	Current(ctx context.Context, city string) (*Observation, error)
}

// Observation 是一次天气观测，温度单位为摄氏度。
type Observation struct {
	City          string
	Status        string
	WindSpeed     float64
	WindDeg       float64
	Humidity      int
	Temp          float64
	TempMax       float64
	TempMin       float64
	FeelsLike     float64
	Rain1h        *float64
	CloudCoverage int
}

type openWeatherClient struct {
	cfg    config.WeatherConfig
	client *http.Client
}

// NewClient 创建 OpenWeatherMap 客户端。cfg.BaseURL 只决定请求发往的 scheme 与主机，
// 路径由 openweathermap 库拼接。
func NewClient(cfg config.WeatherConfig) Client {
	transport := http.DefaultTransport
	if u, err := url.Parse(cfg.BaseURL); err == nil && u.Host != "" {
		transport = &hostRewriter{scheme: u.Scheme, host: u.Host, next: transport}
	}
	return &openWeatherClient{
		cfg:    cfg,
		client: &http.Client{Transport: &statusChecker{next: transport}},
	}
}

func (c *openWeatherClient) Current(ctx context.Context, city string) (*Observation, error) {
	// CurrentWeatherData 保存一次查询的结果，每次请求新建
	w, err := owm.NewCurrent("C", "EN", c.cfg.APIKey, owm.WithHttpClient(c.withContext(ctx)))
	if err != nil {
		return nil, fmt.Errorf("failed to create weather client: %w", err)
	}
	if err := w.CurrentByName(city); err != nil {
		return nil, fmt.Errorf("failed to call weather api: %w", err)
	}

	obs := &Observation{
		City:          city,
		WindSpeed:     w.Wind.Speed,
		WindDeg:       w.Wind.Deg,
		Humidity:      w.Main.Humidity,
		Temp:          w.Main.Temp,
		TempMax:       w.Main.TempMax,
		TempMin:       w.Main.TempMin,
		FeelsLike:     w.Main.FeelsLike,
		CloudCoverage: w.Clouds.All,
	}
	if len(w.Weather) > 0 {
		obs.Status = w.Weather[0].Description
	}
	if w.Rain.OneH > 0 {
		rain := w.Rain.OneH
		obs.Rain1h = &rain
	}
	return obs, nil
}

// withContext 返回把 ctx 附加到每个请求上的 http.Client，库本身的接口不接收 context。
func (c *openWeatherClient) withContext(ctx context.Context) *http.Client {
	return &http.Client{Transport: &contextTransport{ctx: ctx, next: c.client.Transport}}
}

type contextTransport struct {
	ctx  context.Context
	next http.RoundTripper
}

func (t *contextTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return t.next.RoundTrip(req.WithContext(t.ctx))
}

// hostRewriter 把库内置的 api.openweathermap.org 地址替换为配置的主机。
type hostRewriter struct {
	scheme string
	host   string
	next   http.RoundTripper
}

func (t *hostRewriter) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	r.URL.Scheme = t.scheme
	r.URL.Host = t.host
	r.Host = t.host
	return t.next.RoundTrip(r)
}

// statusChecker 把非 200 响应转换为带响应体的错误，库不检查状态码。
type statusChecker struct {
	next http.RoundTripper
}

func (t *statusChecker) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.next.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("weather api returned non-200 status: %s, body: %s", resp.Status, string(body))
	}
	return resp, nil
}

// Text 按天气工具的固定模板输出文本，页面依赖其中的字段标签。
func (o *Observation) Text() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "In %s, the current weather is as follows:\n", o.City)
	fmt.Fprintf(&sb, "Detailed status: %s\n", o.Status)
	fmt.Fprintf(&sb, "Wind speed: %g m/s, direction: %g°\n", o.WindSpeed, o.WindDeg)
	fmt.Fprintf(&sb, "Humidity: %d%%\n", o.Humidity)
	sb.WriteString("Temperature: \n")
	fmt.Fprintf(&sb, "  - Current: %g°C\n", o.Temp)
	fmt.Fprintf(&sb, "  - High: %g°C\n", o.TempMax)
	fmt.Fprintf(&sb, "  - Low: %g°C\n", o.TempMin)
	fmt.Fprintf(&sb, "  - Feels like: %g°C\n", o.FeelsLike)
	if o.Rain1h != nil {
		fmt.Fprintf(&sb, "Rain: {'1h': %g}\n", *o.Rain1h)
	} else {
		sb.WriteString("Rain: {}\n")
	}
	fmt.Fprintf(&sb, "Cloud cover: %d%%", o.CloudCoverage)
	return sb.String()
}

// Report 返回结构化的天气结果。
func (o *Observation) Report() *model.WeatherReport {
	return &model.WeatherReport{
		Location:    o.City,
		Temperature: o.Temp,
		Status:      o.Status,
		Humidity:    o.Humidity,
		WindSpeed:   o.WindSpeed,
	}
}
