package analyzer

import (
	"fmt"
	"strings"
	"testing"

	"github.com/iWorld-y/trend_radar/app/trend_radar/pkg/model"
)

func topicGroup(word string, n int) model.TopicGroup {
	g := model.TopicGroup{Word: word}
	for i := 1; i <= n; i++ {
		g.Titles = append(g.Titles, model.TopicEntry{
			Title:      fmt.Sprintf("%s 新闻 %d", word, i),
			SourceName: "微博",
			Ranks:      []int{i, i + 2},
			FirstTime:  "2026-01-04 09:00:00",
			LastTime:   "2026-01-04 11:30:00",
			Count:      i,
		})
	}
	return g
}

func feedGroup(word string, n int) model.FeedGroup {
	g := model.FeedGroup{Word: word}
	for i := 1; i <= n; i++ {
		g.Titles = append(g.Titles, model.FeedEntry{
			Title:       fmt.Sprintf("%s 文章 %d", word, i),
			FeedName:    "Hacker News",
			TimeDisplay: "2026-01-04 08:00",
		})
	}
	return g
}

func entryLines(content string) []string {
	var lines []string
	for _, l := range strings.Split(content, "\n") {
		if strings.HasPrefix(l, "- ") {
			lines = append(lines, l)
		}
	}
	return lines
}

func TestSelect_BudgetStopsBeforeFeeds(t *testing.T) {
	topics := []model.TopicGroup{topicGroup("AI", 2), topicGroup("芯片", 2)}
	feeds := []model.FeedGroup{feedGroup("Tech", 5)}

	sel := Select(topics, feeds, 3, true)

	if sel.Included != 3 {
		t.Errorf("Included = %d, want 3", sel.Included)
	}
	if sel.HotlistTotal != 4 || sel.RSSTotal != 5 || sel.Total() != 9 {
		t.Errorf("totals = %d/%d, want 4/5", sel.HotlistTotal, sel.RSSTotal)
	}
	if strings.Contains(sel.Content, rssHeader) || strings.Contains(sel.Content, "文章") {
		t.Errorf("feed lines present in digest:\n%s", sel.Content)
	}
	if got := len(entryLines(sel.Content)); got != 3 {
		t.Errorf("entry lines = %d, want 3", got)
	}
}

func TestSelect_IncludedMatchesEntryLines(t *testing.T) {
	topics := []model.TopicGroup{topicGroup("AI", 3), topicGroup("芯片", 4)}
	feeds := []model.FeedGroup{feedGroup("Tech", 2), feedGroup("Go", 3)}

	for budget := 0; budget <= 14; budget++ {
		sel := Select(topics, feeds, budget, true)
		if sel.Included > budget {
			t.Errorf("budget %d: Included = %d", budget, sel.Included)
		}
		if got := len(entryLines(sel.Content)); got != sel.Included {
			t.Errorf("budget %d: entry lines = %d, Included = %d", budget, got, sel.Included)
		}
	}
}

func TestSelect_Format(t *testing.T) {
	topics := []model.TopicGroup{{
		Word: "AI",
		Titles: []model.TopicEntry{{
			Title:      "大模型\n发布",
			SourceName: "知乎",
			Ranks:      []int{5, 1, 3},
			FirstTime:  "2026-01-04 09:00:00",
			LastTime:   "2026-01-04 11:30:00",
			Count:      3,
		}},
	}}
	feeds := []model.FeedGroup{{
		Word:   "Go",
		Titles: []model.FeedEntry{{Title: "Go 1.26", FeedName: "Go Blog", TimeDisplay: "2026-01-04 08:00"}},
	}}

	sel := Select(topics, feeds, 10, true)
	want := strings.Join([]string{
		hotlistHeader,
		hotlistLegend,
		"",
		"**AI** (1条)",
		"- [知乎] 大模型 发布 | 排名:1-5 | 时间:09:00~11:30 | 出现:3次",
		"",
		rssHeader,
		rssLegend,
		"",
		"**Go** (1条)",
		"- [Go Blog] Go 1.26 | 2026-01-04 08:00",
	}, "\n")
	if sel.Content != want {
		t.Errorf("Content =\n%s\nwant\n%s", sel.Content, want)
	}
}

func TestSelect_FeedsDisabled(t *testing.T) {
	sel := Select(nil, []model.FeedGroup{feedGroup("Tech", 3)}, 10, false)
	if sel.Content != "" || sel.Included != 0 {
		t.Errorf("Content = %q, Included = %d", sel.Content, sel.Included)
	}
	if sel.RSSTotal != 3 {
		t.Errorf("RSSTotal = %d, want 3", sel.RSSTotal)
	}
}

func TestSelect_EmptyIffNoTitles(t *testing.T) {
	topics := []model.TopicGroup{
		{Word: "", Titles: []model.TopicEntry{{Title: "无关键词"}}},
		{Word: "AI", Titles: []model.TopicEntry{{Title: ""}}},
		{Word: "空组"},
	}
	sel := Select(topics, nil, 10, true)
	if sel.Content != "" || sel.Included != 0 {
		t.Errorf("Content = %q, Included = %d", sel.Content, sel.Included)
	}

	topics = append(topics, model.TopicGroup{Word: "芯片", Titles: []model.TopicEntry{{Title: "", Count: 2}, {Title: "有标题"}}})
	sel = Select(topics, nil, 10, true)
	if sel.Content == "" || sel.Included != 1 {
		t.Errorf("Content = %q, Included = %d", sel.Content, sel.Included)
	}
}

func TestTopicLine_Defaults(t *testing.T) {
	got := topicLine(model.TopicEntry{Title: "标题"})
	if want := "- 标题 | 排名:- | 时间:- | 出现:1次"; got != want {
		t.Errorf("topicLine() = %q, want %q", got, want)
	}
}
