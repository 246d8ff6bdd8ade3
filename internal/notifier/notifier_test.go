package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TrendWave/internal/model"
	"TrendWave/internal/recorder"
)

func sampleReport() *model.SignalReport {
	r := model.NewSignalReport()
	r.GeneratedAt = time.Date(2026, 10, 14, 16, 30, 0, 0, time.UTC)
	r.Buy = []string{"AAA"}
	r.Neutral = []string{"CCC", "DDD"}
	r.Snapshots["AAA"] = model.Snapshot{Price: 103, Direction: model.Up, TrendLabel: "uptrend (new)", Signal: model.SignalBuy, Bucket: model.BucketBuy}
	r.Snapshots["CCC"] = model.Snapshot{Price: 50.5, Direction: model.Up, TrendLabel: "uptrend", DaysInTrend: 4.5, Bucket: model.BucketNeutral}
	r.Snapshots["DDD"] = model.Snapshot{Price: 10, Direction: model.Flat, TrendLabel: "neutral", Bucket: model.BucketNeutral}
	r.Failed["SHORT"] = "insufficient data"
	return r
}

func TestFormatReport(t *testing.T) {
	r := sampleReport()
	rows := []model.SummaryRow{
		{Symbol: "AAA", Price: 103, Trend: "uptrend (new)", DaysInTrend: 0, Signal: "BUY"},
		{Symbol: "CCC", Price: 50.5, Trend: "uptrend", DaysInTrend: 4.5, Signal: "HOLD"},
	}
	dist := model.Distribution{Buy: 1, Uptrend: 1, Neutral: 1}

	msg := FormatReport(r, rows, dist)

	assert.Contains(t, msg, "2026-10-14 16:30")
	assert.Contains(t, msg, "BUY Signals: 1\n  - AAA: $103.00")
	assert.Contains(t, msg, "SELL Signals: 0")
	assert.Contains(t, msg, "Neutral (No Recent Signal): 2")
	assert.Contains(t, msg, "<pre>Symbol")
	assert.Contains(t, msg, "uptrend (new)")
	assert.Contains(t, msg, "Buy Signal 1 (33.3%) | In Uptrend 1 (33.3%) | Neutral 1 (33.3%)")
	assert.NotContains(t, msg, "Sell Signal 0")
	assert.NotContains(t, msg, "In Downtrend")
	assert.Contains(t, msg, "Failed (1)")
	assert.Contains(t, msg, "SHORT: insufficient data")
	assert.Less(t, strings.Index(msg, "AAA  "), strings.Index(msg, "CCC  "))
}

func TestFormatReport_Empty(t *testing.T) {
	r := model.NewSignalReport()
	msg := FormatReport(r, nil, model.Distribution{})
	assert.NotContains(t, msg, "DETAILED SUMMARY")
	assert.NotContains(t, msg, "Distribution")
	assert.NotContains(t, msg, "Failed")
}

func TestFormatTable_Aligned(t *testing.T) {
	out := FormatTable([]model.SummaryRow{
		{Symbol: "A", Price: 1, Trend: "uptrend (new)", Signal: "BUY"},
		{Symbol: "LONGNAME", Price: 1234.5, Trend: "downtrend", DaysInTrend: 12.5, Signal: "HOLD"},
	})
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 3)
	col := strings.Index(lines[0], "Price")
	assert.Equal(t, col, strings.Index(lines[2], "1234.50"))
	assert.Contains(t, lines[2], "12.5")
}

func TestFormatSnapshot(t *testing.T) {
	upper := 110.25
	msg := FormatSnapshot("TCS.NS", model.Snapshot{
		Price: 105, TrendLabel: "downtrend", Signal: model.SignalNone, DaysInTrend: 3, Upper: &upper,
	})
	assert.Contains(t, msg, "<b>TCS.NS</b>")
	assert.Contains(t, msg, "Signal: HOLD")
	assert.Contains(t, msg, "Upper band: 110.25")
	assert.NotContains(t, msg, "Lower band")
}

func TestFormatStatus(t *testing.T) {
	assert.Contains(t, FormatStatus(nil, time.Time{}), "No refresh has run yet")
	msg := FormatStatus(sampleReport(), time.Date(2026, 10, 15, 16, 30, 0, 0, time.UTC))
	assert.Contains(t, msg, "Classified: 3 (BUY 1, SELL 0, neutral 2)")
	assert.Contains(t, msg, "Failed: 1")
	assert.Contains(t, msg, "Next refresh: 2026-10-15 16:30")
}

func TestFormatStoredStatus(t *testing.T) {
	run := recorder.RunRecord{ID: 4, Timestamp: 1760459400, BuyCount: 2, SellCount: 1, NeutralCount: 5, FailedCount: 3}
	msg := FormatStoredStatus(run, time.Time{})
	assert.Contains(t, msg, "Last stored refresh: "+time.Unix(1760459400, 0).Format("2006-01-02 15:04"))
	assert.Contains(t, msg, "Classified: 8 (BUY 2, SELL 1, neutral 5)")
	assert.Contains(t, msg, "Failed: 3")
	assert.NotContains(t, msg, "Next refresh")
}

func newTestNotifier(url string) *TelegramNotifier {
	tn := NewTelegramNotifier("TOKEN", "42", "")
	tn.BaseURL = url
	tn.Backoff = time.Millisecond
	return tn
}

func TestSend(t *testing.T) {
	var got map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/botTOKEN/sendMessage", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	require.NoError(t, newTestNotifier(server.URL).Send(context.Background(), "hello"))
	assert.Equal(t, "42", got["chat_id"])
	assert.Equal(t, "hello", got["text"])
	assert.Equal(t, "HTML", got["parse_mode"])
}

var tagRe = regexp.MustCompile(`<[^>]*>`)

// telegramLen measures text the way the Bot API does after HTML parsing.
func telegramLen(text string) int {
	return len(utf16.Encode([]rune(html.UnescapeString(tagRe.ReplaceAllString(text, "")))))
}

func TestSend_SplitsLongReport(t *testing.T) {
	var texts []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&p))
		texts = append(texts, p["text"])
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	r := model.NewSignalReport()
	var rows []model.SummaryRow
	for i := 0; i < 150; i++ {
		sym := fmt.Sprintf("SYM%03d", i)
		r.Neutral = append(r.Neutral, sym)
		rows = append(rows, model.SummaryRow{Symbol: sym, Price: 100 + float64(i), Trend: "uptrend", DaysInTrend: 4.5, Signal: "HOLD"})
	}
	r.Failed["A&B"] = "bad <data>"
	msg := FormatReport(r, rows, model.Distribution{Uptrend: 150})
	require.Greater(t, telegramLen(msg), maxMessageLen)

	require.NoError(t, newTestNotifier(server.URL).SendWithRetry(context.Background(), msg, 0))
	require.Greater(t, len(texts), 1)

	joined := strings.Join(texts, "")
	for _, text := range texts {
		assert.LessOrEqual(t, telegramLen(text), maxMessageLen)
		assert.Equal(t, strings.Count(text, "<pre>"), strings.Count(text, "</pre>"), text)
		assert.Equal(t, strings.Count(text, "<b>"), strings.Count(text, "</b>"), text)
		if i := strings.Index(text, "</pre>"); i >= 0 {
			assert.Less(t, strings.Index(text, "<pre>"), i)
		}
	}
	for _, row := range rows {
		assert.Equal(t, 1, strings.Count(joined, row.Symbol+"  "), row.Symbol)
	}
	assert.Contains(t, joined, "A&amp;B: bad &lt;data&gt;")
}

func TestSplitMessage(t *testing.T) {
	assert.Equal(t, []string{"hello"}, splitMessage("hello", maxMessageLen))
	assert.Empty(t, splitMessage("", maxMessageLen))

	// Astral runes count as two units.
	chunks := splitMessage(strings.Repeat("📊", 3000), maxMessageLen)
	require.Len(t, chunks, 2)
	assert.Equal(t, 2048, utf8.RuneCountInString(chunks[0]))
	assert.Equal(t, 952, utf8.RuneCountInString(chunks[1]))

	// Entities are never cut and count as the character they stand for.
	chunks = splitMessage(strings.Repeat("&amp;", 5000), maxMessageLen)
	require.Len(t, chunks, 2)
	assert.Equal(t, 4096, strings.Count(chunks[0], "&amp;"))
	assert.True(t, strings.HasSuffix(chunks[0], ";"))
	assert.Equal(t, 904, strings.Count(chunks[1], "&amp;"))

	// Open tags are closed and reopened across a cut.
	chunks = splitMessage("<b>"+strings.Repeat("x", 5000)+"</b>", maxMessageLen)
	require.Len(t, chunks, 2)
	assert.Equal(t, "<b>"+strings.Repeat("x", 4096)+"</b>", chunks[0])
	assert.Equal(t, "<b>"+strings.Repeat("x", 904)+"</b>", chunks[1])

	// Lines are kept whole when they fit.
	line := strings.Repeat("y", 99) + "\n"
	chunks = splitMessage(strings.Repeat(line, 50), maxMessageLen)
	require.Len(t, chunks, 2)
	assert.Equal(t, strings.Repeat(line, 40), chunks[0])
	assert.Equal(t, strings.Repeat(line, 10), chunks[1])
}

func TestSendWithRetry(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "busy", http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	require.NoError(t, newTestNotifier(server.URL).SendWithRetry(context.Background(), "hi", 3))
	assert.Equal(t, int32(3), calls.Load())
}

func TestSendWithRetry_Exhausted(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer server.Close()

	err := newTestNotifier(server.URL).SendWithRetry(context.Background(), "hi", 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all 3 retries exhausted")
	assert.Contains(t, err.Error(), "status 502")
	assert.Equal(t, int32(3), calls.Load())
}

func TestSendWithRetry_RejectedNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, `{"ok":false,"description":"Bad Request: can't parse entities"}`, http.StatusBadRequest)
	}))
	defer server.Close()

	err := newTestNotifier(server.URL).SendWithRetry(context.Background(), "<b>hi", 3)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, int32(1), calls.Load())
}

func TestPollOnce(t *testing.T) {
	var replies []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/botTOKEN/getUpdates":
			assert.Equal(t, "7", r.URL.Query().Get("offset"))
			_, _ = w.Write([]byte(`{"ok":true,"result":[
				{"update_id":7,"message":{"text":" /status ","chat":{"id":42}}},
				{"update_id":8,"message":{"text":"/signals","chat":{"id":99}}},
				{"update_id":9}
			]}`))
		case "/botTOKEN/sendMessage":
			var p map[string]string
			_ = json.NewDecoder(r.Body).Decode(&p)
			replies = append(replies, p["text"])
		}
	}))
	defer server.Close()

	tn := newTestNotifier(server.URL)
	var commands []string
	next, err := tn.pollOnce(context.Background(), server.Client(), 7, 0, func(cmd string) string {
		commands = append(commands, cmd)
		return "reply to " + cmd
	})
	require.NoError(t, err)
	assert.Equal(t, 10, next)
	assert.Equal(t, []string{"/status"}, commands)
	assert.Equal(t, []string{"reply to /status"}, replies)
}

func TestPollOnce_NotOK(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok":false,"description":"Unauthorized"}`))
	}))
	defer server.Close()

	next, err := newTestNotifier(server.URL).pollOnce(context.Background(), server.Client(), 3, 0, func(string) string { return "" })
	require.Error(t, err)
	assert.Equal(t, 3, next)
}
