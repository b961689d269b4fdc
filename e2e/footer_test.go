//go:build e2e

package e2e

import (
	"strings"
	"testing"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- counter tests ---

func countText(t *testing.T, page playwright.Page) string {
	t.Helper()
	text, err := page.Locator("span.todo-count").TextContent()
	require.NoError(t, err)
	return text
}

func TestCounter_ShowsActiveCount(t *testing.T) {
	page := newPage(t)
	openApp(t, page)

	createTodo(t, page, fixtures[0])
	assert.Contains(t, countText(t, page), "1")
	createTodo(t, page, fixtures[1])
	assert.Contains(t, countText(t, page), "2")
	createTodo(t, page, fixtures[2])
	assert.Contains(t, countText(t, page), "3")

	toggleItem(t, page, 0)
	assert.Contains(t, countText(t, page), "2")
	deleteItem(t, page, 0)
	assert.Contains(t, countText(t, page), "2", "completed item removal keeps the count")
	deleteItem(t, page, 0)
	assert.Contains(t, countText(t, page), "1")
}

func TestCounter_Pluralizes(t *testing.T) {
	page := newPage(t)
	openApp(t, page)

	createTodo(t, page, fixtures[0])
	toggleItem(t, page, 0)
	assert.Equal(t, "0 items left", countText(t, page))
	toggleItem(t, page, 0)
	assert.Equal(t, "1 item left", countText(t, page))
	createTodo(t, page, fixtures[1])
	assert.Equal(t, "2 items left", countText(t, page))
	createTodo(t, page, fixtures[2])
	assert.Equal(t, "3 items left", countText(t, page))
}

// --- clear completed tests ---

func TestClearCompleted_VisibleWithCompleted(t *testing.T) {
	page := newPage(t)
	openApp(t, page)
	createFixtures(t, page, 4)

	assert.False(t, isVisible(t, page.Locator(".clear-completed")))
	toggleItem(t, page, 0)
	assert.True(t, isVisible(t, page.Locator(".clear-completed")))
}

func TestClearCompleted_RemovesCompleted(t *testing.T) {
	page := newPage(t)
	openApp(t, page)
	createFixtures(t, page, 4)

	toggleItem(t, page, 0)
	toggleItem(t, page, 1)
	toggleItem(t, page, 3)
	submit(t, page, func() error { return page.Locator(".clear-completed").Click() })
	assert.Equal(t, []string{fixtures[2]}, itemLabels(t, page))
	assert.False(t, isVisible(t, page.Locator(".clear-completed")), "hidden when nothing is completed")

	reload(t, page)
	assert.Equal(t, []string{fixtures[2]}, itemLabels(t, page), "removal persisted")
}

// --- routing tests ---

func filterLink(page playwright.Page, name string) playwright.Locator {
	return page.Locator(".filters li a:text-is('" + name + "')")
}

// clickFilter follows the filter link and waits for the view to load
func clickFilter(t *testing.T, page playwright.Page, name string) {
	t.Helper()
	path := "/"
	if name != "All" {
		path += strings.ToLower(name)
	}
	require.NoError(t, filterLink(page, name).Click())
	require.NoError(t, page.WaitForURL(baseURL+path))
	require.NoError(t, page.WaitForLoadState())
}

func TestRouting_Active(t *testing.T) {
	page := newPage(t)
	openApp(t, page)
	createFixtures(t, page, 3)
	toggleItem(t, page, 1)

	clickFilter(t, page, "Active")
	assert.Equal(t, []string{fixtures[0], fixtures[2]}, itemLabels(t, page))
}

func TestRouting_Completed(t *testing.T) {
	page := newPage(t)
	openApp(t, page)
	createFixtures(t, page, 3)
	toggleItem(t, page, 1)

	clickFilter(t, page, "Completed")
	assert.Equal(t, []string{fixtures[1]}, itemLabels(t, page))
}

func TestRouting_All(t *testing.T) {
	page := newPage(t)
	openApp(t, page)
	createFixtures(t, page, 3)
	toggleItem(t, page, 1)

	clickFilter(t, page, "Active")
	clickFilter(t, page, "Completed")
	clickFilter(t, page, "All")
	assert.Equal(t, 3, itemCount(t, page))
}

func TestRouting_HighlightsFilter(t *testing.T) {
	page := newPage(t)
	openApp(t, page)
	createFixtures(t, page, 3)

	filter := func(name string) bool {
		return hasClass(t, filterLink(page, name), "selected")
	}
	assert.True(t, filter("All"))

	clickFilter(t, page, "Active")
	assert.True(t, filter("Active"))
	assert.False(t, filter("All"))

	clickFilter(t, page, "Completed")
	assert.True(t, filter("Completed"))
}

func TestRouting_BackButton(t *testing.T) {
	page := newPage(t)
	openApp(t, page)
	createFixtures(t, page, 3)
	toggleItem(t, page, 0)

	clickFilter(t, page, "All")
	clickFilter(t, page, "Active")
	clickFilter(t, page, "Completed")

	_, err := page.GoBack()
	require.NoError(t, err)
	require.NoError(t, page.WaitForURL(baseURL+"/active"))
	assert.Equal(t, 2, itemCount(t, page))

	_, err = page.GoBack()
	require.NoError(t, err)
	require.NoError(t, page.WaitForURL(baseURL+"/"))
	assert.Equal(t, 3, itemCount(t, page))
}

func TestRouting_Bookmarks(t *testing.T) {
	page := newPage(t)
	openApp(t, page)
	createFixtures(t, page, 3)
	toggleItem(t, page, 0)

	clickFilter(t, page, "Active")
	reload(t, page)
	assert.Equal(t, 2, itemCount(t, page))

	clickFilter(t, page, "Completed")
	reload(t, page)
	assert.Equal(t, 1, itemCount(t, page))

	clickFilter(t, page, "All")
	reload(t, page)
	assert.Equal(t, 3, itemCount(t, page))
}

func TestRouting_MutationKeepsView(t *testing.T) {
	page := newPage(t)
	openApp(t, page)
	createFixtures(t, page, 2)

	clickFilter(t, page, "Active")
	toggleItem(t, page, 0)
	require.NoError(t, page.WaitForURL(baseURL+"/active"))
	assert.Equal(t, []string{fixtures[1]}, itemLabels(t, page))
}
