package paapi

// PA-API 5.0 GetItems wire types. Only the fields this package reads are declared.

const (
	serviceName    = "ProductAdvertisingAPI"
	getItemsPath   = "/paapi5/getitems"
	getItemsTarget = "com.amazon.paapi5.v1.ProductAdvertisingAPIv1.GetItems"
	partnerType    = "Associates"
)

var getItemsResources = []string{
	"Images.Primary.Medium",
	"Images.Primary.Large",
	"ItemInfo.Title",
}

type getItemsRequest struct {
	ItemIDs     []string `json:"ItemIds"`
	Resources   []string `json:"Resources"`
	PartnerTag  string   `json:"PartnerTag"`
	PartnerType string   `json:"PartnerType"`
	Marketplace string   `json:"Marketplace"`
}

type getItemsResponse struct {
	ItemsResult *itemsResult `json:"ItemsResult"`
	Errors      []apiError   `json:"Errors"`
}

type itemsResult struct {
	Items []item `json:"Items"`
}

type item struct {
	ASIN     string    `json:"ASIN"`
	Images   *images   `json:"Images"`
	ItemInfo *itemInfo `json:"ItemInfo"`
}

type images struct {
	Primary *imageSizes `json:"Primary"`
}

type imageSizes struct {
	Medium *imageURL `json:"Medium"`
	Large  *imageURL `json:"Large"`
}

type imageURL struct {
	URL    string `json:"URL"`
	Height int    `json:"Height"`
	Width  int    `json:"Width"`
}

type itemInfo struct {
	Title *displayValue `json:"Title"`
}

type displayValue struct {
	DisplayValue string `json:"DisplayValue"`
}

type apiError struct {
	Code    string `json:"Code"`
	Message string `json:"Message"`
}
