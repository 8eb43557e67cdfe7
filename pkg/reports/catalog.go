package reports

import (
	"sort"

	"github.com/atdtech/dcdash/pkg/query"
)

// Entry describes one report for tooling that enumerates them.
type Entry struct {
	Name     string
	Template query.Template
	// Samples are filter sets that together exercise every optional
	// fragment of the template.
	Samples []query.FilterSet
}

var registry = map[string]runner{}

var samples = map[string][]query.FilterSet{}

func register(r runner, s ...query.FilterSet) {
	registry[r.name()] = r
	samples[r.name()] = s
}

func init() {
	register(dcLocations, nil)
	register(dcOnhand, query.FilterSet{"dcid": 84})
	register(openOrderLines,
		query.FilterSet{"dc": 84},
		query.FilterSet{"dc": 84, "days_back": 30},
		query.FilterSet{"dc": 84, "order_number": 100001},
		query.FilterSet{"dc": 84, "ordered_item": "abc123"},
		query.FilterSet{"dc": 84, "days_back": 365, "order_number": 100001, "ordered_item": "abc123"},
	)
	register(invoiceLines, query.FilterSet{"dcid": 84})
	register(routePlans, query.FilterSet{"dcid": 84})
	register(holdHistory,
		query.FilterSet{"header_id": 123456},
		query.FilterSet{"header_id": 123456, "line_id": 789012},
	)
	register(openTripExceptions, query.FilterSet{"org_id": 84})
	register(networkInventory, query.FilterSet{"dcid": 84, "itemid": 12345})
	register(descartesInfo, query.FilterSet{"order_number": 100001, "line_id": 789012})
}

// Names returns the report names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Catalog returns every report in name order.
func Catalog() []Entry {
	names := Names()
	out := make([]Entry, len(names))
	for i, name := range names {
		out[i] = Entry{Name: name, Template: registry[name].template(), Samples: samples[name]}
	}
	return out
}

// Lookup returns the named report.
func Lookup(name string) (Entry, bool) {
	r, ok := registry[name]
	if !ok {
		return Entry{}, false
	}
	return Entry{Name: name, Template: r.template(), Samples: samples[name]}, true
}
