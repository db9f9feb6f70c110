package analyzer

import (
	"fmt"
	"slices"
	"strings"

	"github.com/iWorld-y/trend_radar/app/trend_radar/pkg/model"
)

const (
	hotlistHeader = "### 热榜新闻"
	hotlistLegend = "格式: [来源] 标题 | 排名:最高-最低 | 时间:首次~末次 | 出现:N次"
	rssHeader     = "### RSS 订阅"
	rssLegend     = "格式: [来源] 标题 | 发布时间"
)

// Selection 内容筛选结果
type Selection struct {
	Content      string // 提交给模型的新闻摘要文本
	HotlistTotal int    // 截断前的热榜条目总数
	RSSTotal     int    // 截断前的 RSS 条目总数
	Included     int    // 实际写入 Content 的条目数
}

// Total 热榜与 RSS 条目总数
func (s Selection) Total() int {
	return s.HotlistTotal + s.RSSTotal
}

type section struct {
	header, legend string
	open           bool
}

type group struct {
	line string
	open bool
}

func newGroup(word string, size int) *group {
	return &group{line: fmt.Sprintf("**%s** (%d条)", word, size)}
}

// digestWriter 按需写入分区与分组标题，保证没有条目时输出为空
type digestWriter struct {
	lines    []string
	budget   int
	included int
}

func (w *digestWriter) full() bool {
	return w.included >= w.budget
}

func (w *digestWriter) emit(sec *section, grp *group, line string) {
	if !sec.open {
		header := sec.header
		if len(w.lines) > 0 {
			header = "\n" + header
		}
		w.lines = append(w.lines, header, sec.legend)
		sec.open = true
	}
	if !grp.open {
		w.lines = append(w.lines, "\n"+grp.line)
		grp.open = true
	}
	w.lines = append(w.lines, line)
	w.included++
}

// Select 合并热榜与 RSS 数据，按条目上限生成摘要文本
func Select(topics []model.TopicGroup, feeds []model.FeedGroup, budget int, includeFeeds bool) Selection {
	sel := Selection{}
	for _, g := range topics {
		sel.HotlistTotal += len(g.Titles)
	}
	for _, g := range feeds {
		sel.RSSTotal += len(g.Titles)
	}

	w := &digestWriter{budget: budget}

	hotlist := &section{header: hotlistHeader, legend: hotlistLegend}
	for _, g := range topics {
		if w.full() {
			break
		}
		if g.Word == "" || len(g.Titles) == 0 {
			continue
		}
		grp := newGroup(g.Word, len(g.Titles))
		for _, e := range g.Titles {
			if w.full() {
				break
			}
			if e.Title == "" {
				continue
			}
			w.emit(hotlist, grp, topicLine(e))
		}
	}

	if includeFeeds {
		rss := &section{header: rssHeader, legend: rssLegend}
		for _, g := range feeds {
			if w.full() {
				break
			}
			if g.Word == "" || len(g.Titles) == 0 {
				continue
			}
			grp := newGroup(g.Word, len(g.Titles))
			for _, e := range g.Titles {
				if w.full() {
					break
				}
				if e.Title == "" {
					continue
				}
				w.emit(rss, grp, feedLine(e))
			}
		}
	}

	sel.Content = strings.Join(w.lines, "\n")
	sel.Included = w.included
	return sel
}

// topicLine 格式: - [来源] 标题 | 排名:X-Y | 时间:首次~末次 | 出现:N次
func topicLine(e model.TopicEntry) string {
	line := entryPrefix(e.SourceLabel(), e.Title)
	return fmt.Sprintf("%s | 排名:%s | 时间:%s | 出现:%d次",
		line, rankRange(e.Ranks), FormatTimeRange(e.FirstTime, e.LastTime), e.Occurrences())
}

// feedLine 格式: - [来源] 标题 | 发布时间
func feedLine(e model.FeedEntry) string {
	line := entryPrefix(e.SourceLabel(), e.Title)
	if e.TimeDisplay != "" {
		line += " | " + e.TimeDisplay
	}
	return line
}

// titleFlattener 标题中的换行会破坏一行一条的格式
var titleFlattener = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

func entryPrefix(source, title string) string {
	title = titleFlattener.Replace(title)
	if source != "" {
		return fmt.Sprintf("- [%s] %s", source, title)
	}
	return "- " + title
}

func rankRange(ranks []int) string {
	if len(ranks) == 0 {
		return "-"
	}
	lo, hi := slices.Min(ranks), slices.Max(ranks)
	if lo == hi {
		return fmt.Sprintf("%d", lo)
	}
	return fmt.Sprintf("%d-%d", lo, hi)
}
