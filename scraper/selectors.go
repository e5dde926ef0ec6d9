package scraper

import "regexp"

// Selectors and markers for haraj.com.sa pages.
// Centralising them makes future updates trivial.
const (
	// Detail page
	TitleSelector       = `h1, [data-testid="post_title"]`
	DescriptionSelector = `article[data-testid="post-article"], article`
	CitySelector        = `a[href*="/city/"]`
	SellerSelector      = `a[href*="/users/"]`
	TagSelector         = `a[href*="/tags/"]`
	ImageSelector       = `img[src], img[data-src], img[data-lazy-src]`
)

// ListingLinkRe matches listing URLs of the form /11173528712/some-title/.
var ListingLinkRe = regexp.MustCompile(`/\d{10,}/[^/]+/?$`)

// PriceRe matches a Saudi Riyal price fragment inside free text.
var PriceRe = regexp.MustCompile(`[\d,.]+\s*(?:ريال|ر\.س)|(?:ريال|ر\.س)\s*[\d,.]+`)

// PostedTimeMarkers flag relative-time text ("now", "ago") on a detail page.
var PostedTimeMarkers = []string{"الآن", "منذ", "قبل"}

// NoResultsMarkers flag an explicit end-of-results page.
var NoResultsMarkers = []string{"لا توجد نتائج", "لا توجد إعلانات", "لم يتم العثور على نتائج"}

// ImageExcludeMarkers filter icons, logos and avatars out of listing images.
var ImageExcludeMarkers = []string{"icon", "logo", "badge", "avatar"}
