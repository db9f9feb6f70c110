package feedsource

import (
	"context"
	"fmt"
	"sync"

	"github.com/mmcdole/gofeed"

	"github.com/iWorld-y/trend_radar/app/trend_radar/pkg/logger"
	"github.com/iWorld-y/trend_radar/app/trend_radar/pkg/model"
)

const timeDisplayLayout = "2006-01-02 15:04"

// FromFeed 将解析后的订阅源转换为一个 RSS 分组，word 为空时使用订阅源标题
func FromFeed(word string, feed *gofeed.Feed) model.FeedGroup {
	if word == "" {
		word = feed.Title
	}
	group := model.FeedGroup{Word: word}
	for _, item := range feed.Items {
		if item == nil || item.Title == "" {
			continue
		}
		group.Titles = append(group.Titles, model.FeedEntry{
			Title:       item.Title,
			FeedName:    feed.Title,
			TimeDisplay: publishedAt(item),
			URL:         item.Link,
		})
	}
	return group
}

func publishedAt(item *gofeed.Item) string {
	switch {
	case item.PublishedParsed != nil:
		return item.PublishedParsed.Local().Format(timeDisplayLayout)
	case item.UpdatedParsed != nil:
		return item.UpdatedParsed.Local().Format(timeDisplayLayout)
	default:
		return item.Published
	}
}

// Fetch 并发抓取订阅源，单个源失败只记录日志，全部失败时返回错误
func Fetch(ctx context.Context, urls []string) ([]model.FeedGroup, error) {
	groups := make([]*model.FeedGroup, len(urls))
	var wg sync.WaitGroup
	var mu sync.Mutex
	var failed int

	for i, u := range urls {
		wg.Add(1)
		go func(i int, u string) {
			defer wg.Done()

			feed, err := gofeed.NewParser().ParseURLWithContext(u, ctx)
			if err != nil {
				logger.Log.Warnf("解析 RSS 失败 [%s]: %v", u, err)
				mu.Lock()
				failed++
				mu.Unlock()
				return
			}
			g := FromFeed("", feed)
			logger.Log.Infof("RSS 源 [%s] 获取 %d 条", g.Word, len(g.Titles))
			groups[i] = &g
		}(i, u)
	}
	wg.Wait()

	if len(urls) > 0 && failed == len(urls) {
		return nil, fmt.Errorf("所有 RSS 源均获取失败 (%d 个)", failed)
	}

	var out []model.FeedGroup
	for _, g := range groups {
		if g != nil {
			out = append(out, *g)
		}
	}
	return out, nil
}
