package logger

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

var (
	// 基础颜色
	debugColor   = color.New(color.FgHiBlue)            // 亮蓝色
	infoColor    = color.New(color.FgHiCyan)            // 亮青色
	warningColor = color.New(color.FgHiYellow)          // 亮黄色
	errorColor   = color.New(color.FgHiRed)             // 亮红色
	fatalColor   = color.New(color.FgHiRed, color.Bold) // 亮红色加粗
)

type rule struct {
	pattern string
	color   *color.Color
}

// 关键词高亮规则
var highlightRules = []rule{
	// 错误相关（红色）
	{`(?i)(error|exception|panic)`, color.New(color.FgHiRed)},
	{`(?i)(failed|fail)`, color.New(color.FgRed)},

	// 时间戳（暗青色）
	{`\d{4}/\d{2}/\d{2}`, color.New(color.FgCyan)},
	{`\d{2}:\d{2}:\d{2}(?:\.\d{3})?`, color.New(color.FgCyan)},

	// IP地址（亮蓝色）
	{`\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}`, color.New(color.FgHiBlue)},

	// HTTP方法（亮蓝色）
	{`(?i)\b(GET|POST|PUT|DELETE|PATCH|HEAD|OPTIONS)\b`, color.New(color.FgBlue)},

	// HTTP状态码
	{`\b([345]\d{2})\b`, color.New(color.FgHiRed)}, // 错误状态码
	{`\b(2\d{2})\b`, color.New(color.FgHiGreen)},   // 成功状态码

	// UUID / 登录票据（亮蓝色）
	{`[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}`, color.New(color.FgHiBlue)},

	// 键值对（青色）
	{`([a-zA-Z_][a-zA-Z0-9_]*=)`, color.New(color.FgHiCyan)},

	// 重要关键词
	{`(?i)\b(success|completed|connected|initialized|started)\b`, color.New(color.FgHiCyan)},
	{`(?i)\b(warning|warn|attention)\b`, color.New(color.FgHiYellow)},

	// 方括号内容（亮蓝色）
	{`\[(.*?)\]`, color.New(color.FgBlue)},

	// 模块标签（青色）
	{`\[GIN\]`, color.New(color.FgHiCyan)},
	{`\[QR\]`, color.New(color.FgHiCyan)},
	{`\[WS\]`, color.New(color.FgHiCyan)},
}

// combinedRegex 用于一次性匹配全部规则的大正则
var combinedRegex *regexp.Regexp

// colorMap[i] 表示第 i 个捕获组对应的颜色
var colorMap []*color.Color

// colorWriter 为标准库 logger 的输出目标
type colorWriter struct{}

// syncPool 管理临时的 strings.Builder，以降低内存分配和 GC 压力
var syncPool = sync.Pool{
	New: func() interface{} {
		return new(strings.Builder)
	},
}

// Write 实现 io.Writer 接口
func (cw *colorWriter) Write(p []byte) (int, error) {
	return writeWithColor(p)
}

// writeWithColor 核心：生成日志的前缀 (时间、文件、行号 + 级别标识) + 高亮处理
func writeWithColor(bytes []byte) (int, error) {
	// 解析调用者信息 (文件名、行号)
	_, file, line, ok := runtime.Caller(5)
	if !ok {
		file = "???"
		line = 0
	}
	file = filepath.Base(file)
	now := time.Now().Format("2006/01/02 15:04:05.000")

	// 从池中获取 builder
	sb := syncPool.Get().(*strings.Builder)
	defer syncPool.Put(sb)
	sb.Reset()

	msg := string(bytes)
	upperMsg := strings.ToUpper(msg)

	// 根据前缀快速判断日志级别并设置颜色
	var levelColor *color.Color
	var levelTag string
	switch {
	case strings.Contains(upperMsg, "[DEBUG]"):
		levelColor = debugColor
		levelTag = "[DEBUG]"
	case strings.Contains(upperMsg, "[INFO]"):
		levelColor = infoColor
		levelTag = "[INFO]"
	case strings.Contains(upperMsg, "[WARN]"):
		levelColor = warningColor
		levelTag = "[WARN]"
	case strings.Contains(upperMsg, "[ERROR]"):
		levelColor = errorColor
		levelTag = "[ERROR]"
	case strings.Contains(upperMsg, "[FATAL]"):
		levelColor = fatalColor
		levelTag = "[FATAL]"
	default:
		levelColor = infoColor
		levelTag = ""
	}

	// 移除日志级别标记，避免被正则重复匹配
	if levelTag != "" {
		msg = strings.Replace(msg, levelTag, "", 1)
	}
	msg = strings.TrimSpace(msg)

	// 拼接前缀
	prefix := fmt.Sprintf("%s %s:%d", now, file, line)
	sb.WriteString(color.New(color.FgHiBlue).Sprint(prefix))
	sb.WriteByte(' ')

	// 添加日志级别标记（使用对应颜色）
	if levelTag != "" {
		sb.WriteString(levelColor.Sprint(levelTag))
		sb.WriteByte(' ')
	}

	// 高亮日志内容
	sb.WriteString(highlightMessage(msg))
	sb.WriteByte('\n')

	_, _ = os.Stdout.WriteString(sb.String())

	return len(bytes), nil
}

// highlightMessage 使用一个大正则一次性找出所有命中规则的子匹配组，再做区间着色
func highlightMessage(msg string) string {
	matches := combinedRegex.FindAllStringSubmatchIndex(msg, -1)
	if len(matches) == 0 {
		return msg
	}

	type interval struct {
		start int
		end   int
		color *color.Color
	}
	var intervals []interval

	for _, m := range matches {
		// m[0], m[1] 是整条匹配的开始结束，后续下标按捕获组顺序排列
		subCount := len(m)/2 - 1

		for i := 0; i < subCount && i < len(colorMap); i++ {
			grpStart := m[2+2*i]
			grpEnd := m[2+2*i+1]
			if grpStart >= 0 && grpEnd >= 0 && grpEnd <= len(msg) {
				intervals = append(intervals, interval{
					start: grpStart,
					end:   grpEnd,
					color: colorMap[i],
				})
			}
		}
	}

	if len(intervals) == 0 {
		return msg
	}

	sort.Slice(intervals, func(i, j int) bool {
		return intervals[i].start < intervals[j].start
	})

	// 合并区间 + 构建高亮字符串
	var result strings.Builder
	result.Grow(len(msg))

	cur := 0
	for i := 0; i < len(intervals); i++ {
		iv := intervals[i]
		if iv.start < cur {
			// 已被前一个区间覆盖，跳过
			continue
		}
		if iv.start > cur {
			result.WriteString(msg[cur:iv.start])
		}
		result.WriteString(iv.color.Sprint(msg[iv.start:iv.end]))
		cur = iv.end
	}
	if cur < len(msg) {
		result.WriteString(msg[cur:])
	}
	return result.String()
}

func init() {
	// 构造单一大正则 (每个规则放到一个独立捕获组里)
	var sb strings.Builder
	sb.Grow(1024)

	colorMap = make([]*color.Color, 0, len(highlightRules))

	sb.WriteByte('(')
	for i, r := range highlightRules {
		if i > 0 {
			sb.WriteByte('|')
		}
		sb.WriteString("(")
		sb.WriteString(r.pattern)
		sb.WriteString(")")
		colorMap = append(colorMap, r.color)
	}
	sb.WriteByte(')')

	combinedRegex = regexp.MustCompile(sb.String())

	// 替换标准库日志输出
	log.SetOutput(&colorWriter{})
	log.SetFlags(0)
}

func Debug(format string, v ...interface{}) {
	log.Printf("[DEBUG] "+format, v...)
}

func Info(format string, v ...interface{}) {
	log.Printf("[INFO] "+format, v...)
}

func Warn(format string, v ...interface{}) {
	log.Printf("[WARN] "+format, v...)
}

func Error(format string, v ...interface{}) {
	log.Printf("[ERROR] "+format, v...)
}

func Fatal(format string, v ...interface{}) {
	log.Printf("[FATAL] "+format, v...)
	os.Exit(1)
}
