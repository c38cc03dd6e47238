package workflow

import "sort"

// Routes maps a campaign kind to the webhook that runs it. It is built once
// at startup and never mutated.
type Routes struct {
	targets map[string]string
}

func NewRoutes(targets map[string]string) Routes {
	copied := make(map[string]string, len(targets))
	for kind, url := range targets {
		copied[kind] = url
	}
	return Routes{targets: copied}
}

func (r Routes) Resolve(kind string) (string, bool) {
	url, ok := r.targets[kind]
	return url, ok
}

// Kinds lists the routable kinds in a stable order.
func (r Routes) Kinds() []string {
	kinds := make([]string, 0, len(r.targets))
	for kind := range r.targets {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}
