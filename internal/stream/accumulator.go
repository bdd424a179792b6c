package stream

import "moviescroll/internal/domain"

// Merge appends the items of page that have not been seen yet, in page order.
// Earlier items are never reordered and the first occurrence of an id wins.
// It returns the grown slice and the number of items appended.
func Merge(items []domain.ResultItem, seen *SeenSet, page *domain.ResultPage) ([]domain.ResultItem, int) {
	if page.Empty() {
		return items, 0
	}
	added := 0
	for _, item := range page.Items {
		if !seen.Add(item.ID) {
			continue
		}
		items = append(items, item)
		added++
	}
	return items, added
}
