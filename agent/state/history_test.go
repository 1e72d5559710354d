package state

import (
	"fmt"
	"slices"
	"strings"
	"testing"
	"time"
)

func fixedClock() func() time.Time {
	base := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	n := 0
	return func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Second)
	}
}

func TestHistoryRenderEmpty(t *testing.T) {
	t.Parallel()

	h := NewHistory()
	if got := h.Render(); got != "" {
		t.Fatalf("Render() = %q, want empty", got)
	}
}

func TestHistoryRenderFormat(t *testing.T) {
	t.Parallel()

	h := NewHistory(WithClock(fixedClock()))
	h.Append("open firefox", "Opened Firefox")
	h.Append("hi", "Hello!")

	want := "CONVERSATION HISTORY:\n" +
		"Exchange 1:\nUser: open firefox\nAI: Opened Firefox\n\n" +
		"Exchange 2:\nUser: hi\nAI: Hello!\n\n"
	if got := h.Render(); got != want {
		t.Fatalf("Render() = %q, want %q", got, want)
	}
}

func TestHistoryRenderIsIdempotent(t *testing.T) {
	t.Parallel()

	h := NewHistory()
	for i := range 7 {
		h.Append(fmt.Sprintf("u%d", i), fmt.Sprintf("a%d", i))
	}
	first := h.Render()
	second := h.Render()
	if first != second {
		t.Fatalf("Render() not idempotent:\n%q\n%q", first, second)
	}
}

func TestHistoryEvictsOldestBeyondCapacity(t *testing.T) {
	t.Parallel()

	h := NewHistory()
	for i := range 11 {
		h.Append(fmt.Sprintf("u%d", i), fmt.Sprintf("a%d", i))
	}

	all := h.Exchanges()
	if len(all) != DefaultHistoryCapacity {
		t.Fatalf("len = %d, want %d", len(all), DefaultHistoryCapacity)
	}
	if all[0].UserText != "u1" {
		t.Fatalf("oldest = %q, want u1", all[0].UserText)
	}
	if all[len(all)-1].UserText != "u10" {
		t.Fatalf("newest = %q, want u10", all[len(all)-1].UserText)
	}
}

func TestHistoryRenderShowsAtMostWindow(t *testing.T) {
	t.Parallel()

	h := NewHistory()
	for i := range 11 {
		h.Append(fmt.Sprintf("u%d", i), fmt.Sprintf("a%d", i))
	}

	rendered := h.Render()
	if n := strings.Count(rendered, "Exchange "); n != DefaultRenderWindow {
		t.Fatalf("rendered exchanges = %d, want %d", n, DefaultRenderWindow)
	}
	if strings.Contains(rendered, "User: u5\n") {
		t.Fatal("u5 is outside the render window")
	}
	if !strings.Contains(rendered, "Exchange 1:\nUser: u6\n") {
		t.Fatalf("window must start at u6, got %q", rendered)
	}
}

func TestHistoryLinesRestartable(t *testing.T) {
	t.Parallel()

	h := NewHistory()
	h.Append("a", "b")

	first := slices.Collect(h.Lines())
	second := slices.Collect(h.Lines())
	if !slices.Equal(first, second) {
		t.Fatalf("Lines() differs between iterations: %v vs %v", first, second)
	}
	if len(first) != 5 {
		t.Fatalf("Lines() = %d lines, want 5", len(first))
	}
}

func TestHistoryLinesStopsEarly(t *testing.T) {
	t.Parallel()

	h := NewHistory()
	h.Append("a", "b")
	h.Append("c", "d")

	n := 0
	for range h.Lines() {
		n++
		if n == 2 {
			break
		}
	}
	if n != 2 {
		t.Fatalf("iterated %d lines, want 2", n)
	}
}

func TestHistoryRestoreKeepsTail(t *testing.T) {
	t.Parallel()

	src := NewHistory(WithCapacity(20))
	for i := range 15 {
		src.Append(fmt.Sprintf("u%d", i), "a")
	}

	h := NewHistory()
	h.Restore(src.Exchanges())
	all := h.Exchanges()
	if len(all) != DefaultHistoryCapacity {
		t.Fatalf("len = %d, want %d", len(all), DefaultHistoryCapacity)
	}
	if all[0].UserText != "u5" {
		t.Fatalf("oldest = %q, want u5", all[0].UserText)
	}
}

func TestHistoryAppendAssignsIdentity(t *testing.T) {
	t.Parallel()

	h := NewHistory(WithClock(fixedClock()))
	a := h.Append("x", "y")
	b := h.Append("x", "y")
	if a.ID == "" || a.ID == b.ID {
		t.Fatalf("expected distinct ids, got %q and %q", a.ID, b.ID)
	}
	if !b.CreatedAt.After(a.CreatedAt) {
		t.Fatalf("expected increasing timestamps, got %v then %v", a.CreatedAt, b.CreatedAt)
	}
}

func TestHistoryWindowNeverExceedsCapacity(t *testing.T) {
	t.Parallel()

	h := NewHistory(WithCapacity(3), WithRenderWindow(8))
	if h.Window() != 3 {
		t.Fatalf("Window() = %d, want 3", h.Window())
	}
}
