package paapi

import "strings"

// DefaultRegion is used when no region is configured or the configured one is unknown
const DefaultRegion = "us-east-1"

// Region ties a signing region to its API host and storefront domain
type Region struct {
	Name        string
	Host        string
	Marketplace string
}

var regions = map[string]Region{
	"us-east-1": {Name: "us-east-1", Host: "webservices.amazon.com", Marketplace: "www.amazon.com"},
	"eu-west-1": {Name: "eu-west-1", Host: "webservices.amazon.co.uk", Marketplace: "www.amazon.co.uk"},
	"us-west-2": {Name: "us-west-2", Host: "webservices.amazon.co.jp", Marketplace: "www.amazon.co.jp"},
}

// regionAliases maps the short marketplace-group names onto real signing regions
var regionAliases = map[string]string{
	"na": "us-east-1",
	"eu": "eu-west-1",
	"fe": "us-west-2",
}

// LookupRegion resolves a configured region name or alias, falling back to DefaultRegion
func LookupRegion(name string) Region {
	key := strings.ToLower(strings.TrimSpace(name))
	if alias, ok := regionAliases[key]; ok {
		key = alias
	}
	if r, ok := regions[key]; ok {
		return r
	}
	return regions[DefaultRegion]
}
