package scraper

import (
	"fmt"
	"time"
)

// Profile bundles everything needed to crawl one site: where the listings
// live, how to page through them, which fields to read from detail pages and
// how long to wait for each step.
type Profile struct {
	Name            string          `yaml:"name"`
	Fetcher         string          `yaml:"fetcher"` // "chrome" or "static"
	DefaultCategory string          `yaml:"default_category"`
	Categories      []string        `yaml:"categories"`
	List            ListConfig      `yaml:"list"`
	Exhibitor       ExhibitorConfig `yaml:"exhibitor"`
	Product         ProductConfig   `yaml:"product"`
	Timeouts        Timeouts        `yaml:"timeouts"`
	Marketplace     Marketplace     `yaml:"marketplace"`
}

// ListConfig describes a paginated search result listing.
type ListConfig struct {
	ReadySelector      string `yaml:"ready_selector"`
	CategorySelector   string `yaml:"category_selector"`
	PaginationSelector string `yaml:"pagination_selector"`
	LinkSelector       string `yaml:"link_selector"`

	// PageButtonSelector is a format string taking the page number.
	PageButtonSelector  string `yaml:"page_button_selector"`
	CurrentPageSelector string `yaml:"current_page_selector"`
}

// ExhibitorConfig defines how to read an exhibitor detail page. Fields maps
// a column name to its CSS selector.
type ExhibitorConfig struct {
	ReadySelector string            `yaml:"ready_selector"`
	Fields        map[string]string `yaml:"fields"`
}

// ProductConfig defines how to read a product page.
type ProductConfig struct {
	ReadySelector           string `yaml:"ready_selector"`
	NameSelector            string `yaml:"name_selector"`
	ManufacturerSelector    string `yaml:"manufacturer_selector"`
	PriceSelector           string `yaml:"price_selector"`
	ColorsSelector          string `yaml:"colors_selector"`
	DescriptionSelector     string `yaml:"description_selector"`
	FrontPictureSelector    string `yaml:"front_picture_selector"`
	BackPictureSelector     string `yaml:"back_picture_selector"`
	PictureAttr             string `yaml:"picture_attr"`
	SizeSelector            string `yaml:"size_selector"`
	UnavailableSizeSelector string `yaml:"unavailable_size_selector"`
}

// Timeouts bound every wait on a page. A wait that runs past its timeout is
// a terminal failure for that unit of work.
type Timeouts struct {
	Listing time.Duration `yaml:"listing"`
	Page    time.Duration `yaml:"page"`
	Detail  time.Duration `yaml:"detail"`
}

// Marketplace holds the constant columns of the product import template.
type Marketplace struct {
	Currency      string `yaml:"currency"`
	ProductType   string `yaml:"product_type"`
	Gender        string `yaml:"gender"`
	VariantFormat string `yaml:"variant_format"` // fmt verb %s receives the joined list
}

// ExhibitorFields lists the scraped exhibitor columns in storage order.
var ExhibitorFields = []string{
	"address",
	"business_type",
	"city_province",
	"company_name",
	"exhibition_records",
	"international_commercial_terms",
	"main_products",
	"number_of_staff",
	"post_code",
	"registered_capital",
	"target_customer",
	"website",
}

// CantonFair returns the exhibitor directory profile.
func CantonFair() Profile {
	const search = "http://i.cantonfair.org.cn/en/SearchResult/Index?QueryType=2&KeyWord=&CategoryNo=%s&StageOne=0&StageTwo=0&StageThree=0&Export=0&Import=0&Provinces=&Countries=&ShowMode=1&NewProduct=0&CF=0&OwnProduct=0&PayMode=&NewCompany=0&BrandCompany=0&ForeignTradeCompany=0&ManufacturCompany=0&CFCompany=0&OtherCompany=0&OEM=0&ODM=0&OBM=0&OrderBy=1&producttab=1"

	var categories []string
	for _, no := range []string{
		"411", "412", "410", "414", "403", "404", "405", "408", "454", "455",
		"451", "401", "402", "406", "407", "415", "416", "427", "453",
	} {
		categories = append(categories, fmt.Sprintf(search, no))
	}
	// International Pavilion has no category number; it is selected by stage
	// and import flags instead.
	categories = append(categories, "http://i.cantonfair.org.cn/en/SearchResult/Index?QueryType=2&KeyWord=&CategoryNo=&StageOne=1&StageTwo=0&StageThree=0&Export=0&Import=1&Provinces=&Countries=&ShowMode=1&NewProduct=0&CF=0&OwnProduct=0&PayMode=&NewCompany=0&BrandCompany=0&ForeignTradeCompany=0&ManufacturCompany=0&CFCompany=0&OtherCompany=0&OEM=0&ODM=0&OBM=0&OrderBy=1&producttab=1")

	return Profile{
		Name:            "cantonfair",
		Fetcher:         "chrome",
		DefaultCategory: "International Pavilion",
		Categories:      categories,
		List: ListConfig{
			ReadySelector:       "#pagearea",
			CategorySelector:    "#curmb > a",
			PaginationSelector:  ".pagenumber > a",
			PageButtonSelector:  `.pagenumber > a[_pageindex="%d"]`,
			CurrentPageSelector: "span.page_cur",
			LinkSelector:        `#gjh_pro_result .czs-list > .min > dl > dt > a[target="_blank"]`,
		},
		Exhibitor: ExhibitorConfig{
			ReadySelector: "#content .cright",
			Fields: map[string]string{
				"address":                        "#Exhi_Address",
				"business_type":                  "#Exhi_TypeName",
				"city_province":                  "#Exhi_Province",
				"company_name":                   "#Exhi_Name",
				"exhibition_records":             "#Exhi_Record",
				"international_commercial_terms": "#Exhi_OEMode",
				"main_products":                  "#Exhi_KeyWord",
				"number_of_staff":                "#Exhi_PeopleNum",
				"post_code":                      "#Exhi_ZipCode",
				"registered_capital":             "#Exhi_ExhFund",
				"target_customer":                "#Exhi_BuyerType",
				"website":                        "#Exhi_WebSite",
			},
		},
		Timeouts: Timeouts{
			Listing: 5 * time.Minute,
			Page:    5 * time.Minute,
			Detail:  5 * time.Minute,
		},
	}
}

// FCMoto returns the motorcycle apparel shop profile used for the product
// catalog export.
func FCMoto() Profile {
	return Profile{
		Name:            "fcmoto",
		Fetcher:         "chrome",
		DefaultCategory: "Одежда",
		List: ListConfig{
			ReadySelector:       "#content",
			CategorySelector:    ".breadcrumb li:last-child",
			PaginationSelector:  ".pagination a",
			PageButtonSelector:  `.pagination a[data-page="%d"]`,
			CurrentPageSelector: ".pagination .active",
			LinkSelector:        ".product-list .product-name > a",
		},
		Product: ProductConfig{
			ReadySelector:           "#product",
			NameSelector:            "h1",
			ManufacturerSelector:    ".manufacturer",
			PriceSelector:           ".price",
			ColorsSelector:          ".color",
			DescriptionSelector:     ".description",
			FrontPictureSelector:    ".gallery img:first-child",
			BackPictureSelector:     ".gallery img:nth-child(2)",
			PictureAttr:             "src",
			SizeSelector:            ".sizes option[value]:not([value=''])",
			UnavailableSizeSelector: ".sizes option[disabled]",
		},
		Timeouts: Timeouts{
			Listing: 3 * time.Minute,
			Page:    3 * time.Minute,
			Detail:  60 * time.Minute,
		},
		Marketplace: DefaultMarketplace(),
	}
}

// DefaultMarketplace returns the template constants for the Russian shop
// import.
func DefaultMarketplace() Marketplace {
	return Marketplace{
		Currency:      "RUB",
		ProductType:   "Одежда",
		Gender:        "мужской",
		VariantFormat: "<%s>",
	}
}

// Builtin returns the named built-in profile.
func Builtin(name string) (Profile, bool) {
	switch name {
	case "cantonfair":
		return CantonFair(), true
	case "fcmoto":
		return FCMoto(), true
	}
	return Profile{}, false
}
