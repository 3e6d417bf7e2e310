package leaders

import "strings"

type FilterOptions struct {
	Scopes    []Scope
	Regions   []string
	FreeWords string
}

func containsFold(hay string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(strings.ToLower(hay), strings.ToLower(n)) {
			return true
		}
	}
	return false
}

func Filter(ls []Leader, opt FilterOptions) []Leader {
	var out []Leader
	for _, l := range ls {
		if len(opt.Scopes) > 0 {
			matched := false
			for _, s := range opt.Scopes {
				if l.Scope == s {
					matched = true
					break
				}
			}
			if !matched {
				continue
			}
		}
		if len(opt.Regions) > 0 {
			if !containsFold(l.Region, opt.Regions) {
				continue
			}
		}
		if opt.FreeWords != "" {
			ok := true
			for _, k := range strings.Fields(opt.FreeWords) {
				k = strings.ToLower(k)
				if !strings.Contains(strings.ToLower(l.Name), k) &&
					!strings.Contains(strings.ToLower(l.Region), k) &&
					!strings.Contains(strings.ToLower(l.ID), k) {
					ok = false
					break
				}
			}
			if !ok {
				continue
			}
		}
		out = append(out, l)
	}
	return out
}
