package crawler

// Item is a queued URL and the link depth it was discovered at.
// The seed has depth 0.
type Item struct {
	URL   string
	Depth int
}

// Frontier is the crawl queue plus the set of URLs already taken from it.
//
// It is not safe for concurrent use; a Crawler touches it from a single
// goroutine.
type Frontier struct {
	queue   []Item
	queued  map[string]struct{}
	visited map[string]struct{}
}

// NewFrontier returns an empty Frontier.
func NewFrontier() *Frontier {
	return &Frontier{
		queue:   make([]Item, 0),
		queued:  make(map[string]struct{}),
		visited: make(map[string]struct{}),
	}
}

// Push appends url to the tail unless it has been visited or is already
// waiting in the queue. It reports whether url was enqueued.
func (f *Frontier) Push(url string, depth int) bool {
	if _, ok := f.visited[url]; ok {
		return false
	}
	if _, ok := f.queued[url]; ok {
		return false
	}
	f.queued[url] = struct{}{}
	f.queue = append(f.queue, Item{URL: url, Depth: depth})
	return true
}

// Pop removes and returns the head of the queue. It returns false when the
// queue is empty.
func (f *Frontier) Pop() (Item, bool) {
	if len(f.queue) == 0 {
		return Item{}, false
	}
	item := f.queue[0]
	f.queue[0] = Item{}
	f.queue = f.queue[1:]
	delete(f.queued, item.URL)
	return item, true
}

// MarkVisited records url as taken. Once visited, a URL can never be pushed
// again.
func (f *Frontier) MarkVisited(url string) {
	f.visited[url] = struct{}{}
}

// Visited reports whether url has been marked visited.
func (f *Frontier) Visited(url string) bool {
	_, ok := f.visited[url]
	return ok
}

// Len returns the number of queued URLs.
func (f *Frontier) Len() int {
	return len(f.queue)
}

// VisitedCount returns the number of visited URLs.
func (f *Frontier) VisitedCount() int {
	return len(f.visited)
}

// Pending returns a copy of the queued URLs, head first.
func (f *Frontier) Pending() []string {
	urls := make([]string, len(f.queue))
	for i, item := range f.queue {
		urls[i] = item.URL
	}
	return urls
}
