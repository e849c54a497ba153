// Package weather 从天气工具的回复中提取展示字段。
package weather

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"

	"ivabot-go/internal/model"
)

// 字段缺失时的占位值。
const (
	DefaultLocation    = "Location"
	DefaultTemperature = "--"
	DefaultStatus      = "unknown"
	DefaultHumidity    = "--"
	DefaultWind        = "0"
)

var (
	locationPattern    = regexp.MustCompile(`In ([\w\s]+),`)
	temperaturePattern = regexp.MustCompile(`Current: ([\d.]+)°C`)
	statusPattern      = regexp.MustCompile(`Detailed status: ([\w\s]+)`)
	humidityPattern    = regexp.MustCompile(`Humidity: (\d+)%`)
	windPattern        = regexp.MustCompile(`Wind speed: ([\d.]+)`)
)

// Fields 是天气卡片展示用的字段，均为字符串。
type Fields struct {
	Location    string
	Temperature string
	Status      string
	Humidity    string
	Wind        string
}

// Extract 按固定模板逐字段匹配 content，每个字段独立回退到占位值。
func Extract(content string) Fields {
	return Fields{
		Location:    match(locationPattern, content, DefaultLocation),
		Temperature: match(temperaturePattern, content, DefaultTemperature),
		Status:      match(statusPattern, content, DefaultStatus),
		Humidity:    match(humidityPattern, content, DefaultHumidity),
		Wind:        match(windPattern, content, DefaultWind),
	}
}

func match(re *regexp.Regexp, content, fallback string) string {
	m := re.FindStringSubmatch(content)
	if len(m) < 2 || m[1] == "" {
		return fallback
	}
	return m[1]
}

// FromReport 把结构化天气结果转换为展示字段，不做任何文本匹配。
func FromReport(r model.WeatherReport) Fields {
	f := Fields{
		Location:    r.Location,
		Temperature: strconv.FormatFloat(r.Temperature, 'f', -1, 64),
		Status:      r.Status,
		Humidity:    strconv.Itoa(r.Humidity),
		Wind:        strconv.FormatFloat(r.WindSpeed, 'f', -1, 64),
	}
	if strings.TrimSpace(f.Location) == "" {
		f.Location = DefaultLocation
	}
	if strings.TrimSpace(f.Status) == "" {
		f.Status = DefaultStatus
	}
	return f
}

// ForMessage 选择消息的天气字段来源：优先结构化数据，否则匹配文本。
func ForMessage(m model.Message) Fields {
	if m.Weather != nil {
		return FromReport(*m.Weather)
	}
	return Extract(m.Content)
}

// RoundedTemperature 返回四舍五入（.5 向正无穷）后的温度。无法解析时为 "NaN"，
// 超出 float64 范围时为 "Infinity" / "-Infinity"。
func (f Fields) RoundedTemperature() string {
	v, err := strconv.ParseFloat(f.Temperature, 64)
	if (err != nil && !errors.Is(err, strconv.ErrRange)) || math.IsNaN(v) {
		return "NaN"
	}
	switch {
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	}
	r := math.Floor(v)
	if v-r >= 0.5 {
		r++
	}
	if r == 0 {
		// -0 显示为 0
		r = 0
	}
	return strconv.FormatFloat(r, 'f', 0, 64)
}

// Icon 是天气状态对应的图标类别。
type Icon string

const (
	IconSunny       Icon = "☀️"
	IconCloudy      Icon = "☁️"
	IconRain        Icon = "🌧️"
	IconSnow        Icon = "❄️"
	IconThermometer Icon = "🌡️"
)

// Icon 按优先级对状态文本做不区分大小写的包含匹配。
func (f Fields) Icon() Icon {
	return Classify(f.Status)
}

// Classify 把状态文本映射为图标类别。
func Classify(status string) Icon {
	s := strings.ToLower(status)
	switch {
	case strings.Contains(s, "sun"), strings.Contains(s, "clear"):
		return IconSunny
	case strings.Contains(s, "cloud"):
		return IconCloudy
	case strings.Contains(s, "rain"):
		return IconRain
	case strings.Contains(s, "snow"):
		return IconSnow
	default:
		return IconThermometer
	}
}
