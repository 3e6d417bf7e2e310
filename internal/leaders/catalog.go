package leaders

// Catalog is an immutable, ordered set of leaders indexed by id.
type Catalog struct {
	leaders []Leader
	byID    map[string]int
}

// NewCatalog keeps the first position of every id; later duplicates
// overwrite the entry in place.
func NewCatalog(ls []Leader) *Catalog {
	c := &Catalog{byID: map[string]int{}}
	for _, l := range ls {
		if i, ok := c.byID[l.ID]; ok {
			c.leaders[i] = l
			continue
		}
		c.byID[l.ID] = len(c.leaders)
		c.leaders = append(c.leaders, l)
	}
	return c
}

func (c *Catalog) All() []Leader {
	return append([]Leader(nil), c.leaders...)
}

func (c *Catalog) Len() int { return len(c.leaders) }

func (c *Catalog) Get(id string) (Leader, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Leader{}, false
	}
	return c.leaders[i], true
}

// Resolve turns ids into the parallel photo/name sequences drawn in the
// leader row, in request order. Unknown ids are skipped and returned in
// missing.
func (c *Catalog) Resolve(ids []string) (urls, names, missing []string) {
	for _, id := range ids {
		l, ok := c.Get(id)
		if !ok {
			missing = append(missing, id)
			continue
		}
		urls = append(urls, l.ImageURL)
		names = append(names, l.Name)
	}
	return urls, names, missing
}
