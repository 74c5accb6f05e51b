// =============================================================================
// extract.go - レコード抽出
// =============================================================================
//
// 取得したページとマッチングルールからRecordを取り出す。
//
// 【正規化ルール】
//   - リンク補完: パスだけのhrefにBaseURL（未指定なら取得元ページ）を付ける
//   - 日付整形:   DateFormat指定時、ISO-8601 をそのレイアウトに変換する
//   - テキスト:   前後の空白を除去し、連続空白を1つにまとめる
//
// 【判定】
//
//	セレクタが一致しない場合もエラーにはせず、Extraction.Status で
//	「本当に0件（StatusEmpty）」と「HTMLが変わった（StatusMarkupMismatch）」を区別する。
//
// =============================================================================
package pipeline

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
)

// ErrMarkupMismatch はページ構造がプロファイルと一致しなかったことを示す
var ErrMarkupMismatch = errors.New("page markup does not match profile")

// Err はStatusMarkupMismatchの場合にErrMarkupMismatchを返す
func (e Extraction) Err() error {
	if e.Status == StatusMarkupMismatch {
		return ErrMarkupMismatch
	}
	return nil
}

// Extract はレスポンスボディからレコードを抽出する
//
// 引数:
//
//	body:    取得したページ（HTMLまたはフィード）
//	pageURL: 取得元URL（相対リンクの解決とRecord.URLに使う）
//	rule:    マッチングルール
//	limit:   最大件数（0以下は無制限）
func Extract(body []byte, pageURL string, rule Rule, limit int) (Extraction, error) {
	if rule.Kind == KindFeed {
		return extractFeed(body, pageURL, rule, limit), nil
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return Extraction{}, fmt.Errorf("parse HTML failed: %w", err)
	}
	return ExtractDocument(doc, pageURL, rule, limit)
}

// ExtractDocument はパース済みのHTMLドキュメントからレコードを抽出する
func ExtractDocument(doc *goquery.Document, pageURL string, rule Rule, limit int) (Extraction, error) {
	switch rule.Kind {
	case KindList:
		return extractList(doc, pageURL, rule, limit), nil
	case KindSections:
		return extractSections(doc, pageURL, rule, limit), nil
	}
	return Extraction{}, fmt.Errorf("%s: %w (got %q)", rule.Name, ErrRuleInvalidKind, rule.Kind)
}

// classify は抽出件数からステータスを決める
//
// landmarkはページの目印が見つかったか。コンテナが1件も無い場合にだけ使い、
// 「本当に0件」と「HTMLが変わった」を区別する。
func classify(e Extraction, landmark bool) Extraction {
	switch {
	case len(e.Records) > 0:
		e.Status = StatusMatched
	case e.Containers > 0:
		// containers matched but every one was missing a required field
		e.Status = StatusMarkupMismatch
	case landmark:
		e.Status = StatusEmpty
	default:
		e.Status = StatusMarkupMismatch
	}
	return e
}

// =============================================================================
// list
// =============================================================================
//
// コンテナが見つかればlandmarkの有無に関係なく抽出する。
// landmarkはコンテナが0件のときの判定にだけ使う。

func extractList(doc *goquery.Document, pageURL string, rule Rule, limit int) Extraction {
	base := rule.BaseURL
	if base == "" {
		base = pageURL
	}

	var out Extraction
	containers := doc.Find(rule.Container)
	out.Containers = containers.Length()

	containers.EachWithBreak(func(_ int, item *goquery.Selection) bool {
		if limit > 0 && len(out.Records) >= limit {
			return false
		}
		rec, ok := extractListItem(item, base, pageURL, rule)
		if !ok {
			out.Skipped++
			return true
		}
		out.Records = append(out.Records, rec)
		return true
	})

	landmark := true
	if out.Containers == 0 {
		landmark = doc.Find(rule.Landmark).Length() > 0
		if !landmark {
			logger.Debug("landmark not found", "profile", rule.Name, "landmark", rule.Landmark, "url", pageURL)
		}
	}
	return classify(out, landmark)
}

// extractListItem はコンテナ1件からRecordを作る。必須フィールドが欠けていればfalse
func extractListItem(item *goquery.Selection, base, pageURL string, rule Rule) (Record, bool) {
	title, ok := fieldValue(item, rule.Title)
	if !ok && !rule.Title.Optional {
		return Record{}, false
	}

	href, ok := fieldValue(item, rule.Link)
	if !ok && rule.Link.IsSet() && !rule.Link.Optional {
		return Record{}, false
	}

	date, ok := fieldValue(item, rule.Date)
	if !ok && rule.Date.IsSet() && !rule.Date.Optional {
		return Record{}, false
	}

	summary, ok := fieldValue(item, rule.Summary)
	if !ok && rule.Summary.IsSet() && !rule.Summary.Optional {
		return Record{}, false
	}

	return Record{
		Date:    reformatISODate(date, rule.DateFormat),
		Title:   title,
		Link:    resolveURL(base, href),
		URL:     pageURL,
		Summary: summary,
	}, true
}

// fieldValue はFieldRuleに従って値を取り出す。要素が無い・値が空ならfalse
func fieldValue(scope *goquery.Selection, f FieldRule) (string, bool) {
	if !f.IsSet() {
		return "", false
	}
	sel := scope.Find(f.Selector).First()
	if sel.Length() == 0 {
		return "", false
	}
	if f.Attr != "" {
		v, exists := sel.Attr(f.Attr)
		v = strings.TrimSpace(v)
		return v, exists && v != ""
	}
	v := normalizeWhitespace(sel.Text())
	return v, v != ""
}

// =============================================================================
// sections
// =============================================================================
//
// 公表物ページの形式:
//
//	<div class="layout layout--onecol">
//	  <h2>見出し</h2>
//	  <p>Published: 12/11/2024</p>
//	  <p>本文...</p>
//	  <h2>次の見出し</h2> ...
//
// 最初の見出しより前の段落は最初のレコードの要約に含める。
// 空白だけの見出しもレコードになる（タイトルは空）。テキストが全く無い
// 見出しはレコードにならず、その後の段落は次のレコードの要約に回る。

func extractSections(doc *goquery.Document, pageURL string, rule Rule, limit int) Extraction {
	region := doc.Find(rule.Landmark).First()
	if region.Length() == 0 {
		logger.Debug("landmark not found", "profile", rule.Name, "landmark", rule.Landmark, "url", pageURL)
		return Extraction{Status: StatusMarkupMismatch}
	}

	marker := strings.TrimSpace(strings.TrimSuffix(rule.DatePrefix, ":"))

	var (
		out     Extraction
		title   string // raw heading text; "" means no open record
		date    string
		link    string
		summary []string
	)
	emit := func() {
		if title == "" {
			return
		}
		out.Records = append(out.Records, Record{
			Date:    date,
			Title:   normalizeWhitespace(title),
			Link:    link,
			URL:     pageURL,
			Summary: strings.Join(summary, " "),
		})
		summary = nil
	}

	region.Find(rule.Heading + ", " + rule.Body).Each(func(_ int, s *goquery.Selection) {
		if s.Is(rule.Heading) {
			emit()
			out.Containers++
			title = s.Text()
			date = ""
			if title == "" {
				out.Skipped++
			}
			link = pageURL
			if id, ok := s.Attr("id"); ok && strings.TrimSpace(id) != "" {
				link = resolveURL(pageURL, "#"+strings.TrimSpace(id))
			}
			return
		}
		text := normalizeWhitespace(s.Text())
		if text == "" {
			return
		}
		if marker != "" && strings.Contains(text, marker) {
			d := strings.TrimSpace(strings.ReplaceAll(text, rule.DatePrefix, ""))
			date = reformatISODate(d, rule.DateFormat)
			return
		}
		summary = append(summary, text)
	})
	emit()

	if limit > 0 && len(out.Records) > limit {
		out.Records = out.Records[:limit]
	}
	return classify(out, true)
}

// =============================================================================
// feed
// =============================================================================

func extractFeed(body []byte, pageURL string, rule Rule, limit int) Extraction {
	feed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		logger.Debug("feed parse failed", "profile", rule.Name, "url", pageURL, "error", err)
		return Extraction{Status: StatusMarkupMismatch}
	}

	base := rule.BaseURL
	if base == "" {
		base = pageURL
	}

	var out Extraction
	for _, item := range feed.Items {
		if limit > 0 && len(out.Records) >= limit {
			break
		}
		out.Containers++

		title := normalizeWhitespace(item.Title)
		link := resolveURL(base, item.Link)
		if title == "" || link == "" {
			out.Skipped++
			continue
		}

		out.Records = append(out.Records, Record{
			Date:    feedItemDate(item, rule.DateFormat),
			Title:   title,
			Link:    link,
			URL:     pageURL,
			Summary: feedItemSummary(item),
		})
	}
	return classify(out, true)
}

// feedItemDate は公開日（なければ更新日）を返す
func feedItemDate(item *gofeed.Item, layout string) string {
	if layout != "" {
		if item.PublishedParsed != nil {
			return item.PublishedParsed.Format(layout)
		}
		if item.UpdatedParsed != nil {
			return item.UpdatedParsed.Format(layout)
		}
	}
	if item.Published != "" {
		return strings.TrimSpace(item.Published)
	}
	return strings.TrimSpace(item.Updated)
}

// feedItemSummary は Description を優先し、なければ Content をテキスト化する
func feedItemSummary(item *gofeed.Item) string {
	raw := item.Description
	if raw == "" {
		raw = item.Content
	}
	return htmlToText(raw)
}
