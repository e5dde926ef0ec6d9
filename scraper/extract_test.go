package scraper

import (
	"strings"
	"testing"

	"github.com/JamilPr1/Haraj/models"
)

const resultPageHTML = `
<html><body>
  <div class="posts">
    <a href="/11173528712/toyota-camry-2020/">تويوتا كامري 2020
      <span>الرياض</span></a>
    <a href="/11173528713/honda-accord/">هوندا أكورد</a>
    <a href="https://haraj.com.sa/11173528714/nissan-patrol/">نيسان باترول</a>
    <!-- duplicate link to the same listing, e.g. image anchor -->
    <a href="/11173528712/toyota-camry-2020/"><img src="/thumb.jpg"></a>
    <!-- navigation links that must not match -->
    <a href="/tags/cars">سيارات</a>
    <a href="/users/someone">user</a>
    <a href="/city/riyadh">الرياض</a>
  </div>
</body></html>`

func TestExtractResultPage(t *testing.T) {
	page, err := ExtractResultPage(resultPageHTML, "https://haraj.com.sa/tags/cars")
	if err != nil {
		t.Fatalf("ExtractResultPage: %v", err)
	}

	if len(page.Candidates) != 3 {
		t.Fatalf("got %d candidates, want 3: %#v", len(page.Candidates), page.Candidates)
	}
	if page.EndOfResults {
		t.Fatal("EndOfResults set on a page with listings")
	}

	first := page.Candidates[0]
	if first.URL != "https://haraj.com.sa/11173528712/toyota-camry-2020/" {
		t.Errorf("first URL = %q", first.URL)
	}
	if first.Fields[models.FieldTitle] != "تويوتا كامري 2020" {
		t.Errorf("first title = %q", first.Fields[models.FieldTitle])
	}

	// Absolute links pass through; relative ones resolve against the base.
	if page.Candidates[2].URL != "https://haraj.com.sa/11173528714/nissan-patrol/" {
		t.Errorf("third URL = %q", page.Candidates[2].URL)
	}
}

func TestExtractResultPageNoResultsMarker(t *testing.T) {
	html := `<html><body><div>لا توجد نتائج</div></body></html>`
	page, err := ExtractResultPage(html, "https://haraj.com.sa/tags/cars")
	if err != nil {
		t.Fatalf("ExtractResultPage: %v", err)
	}
	if len(page.Candidates) != 0 {
		t.Fatalf("got %d candidates on a no-results page", len(page.Candidates))
	}
	if !page.EndOfResults {
		t.Fatal("explicit no-results marker not detected")
	}
}

const detailPageHTML = `
<html><body>
  <h1>تويوتا كامري 2020 فل كامل</h1>
  <a href="/users/abdullah123">عبدالله</a>
  <a href="/city/riyadh">الرياض</a>
  <a href="/tags/cars">حراج السيارات</a>
  <a href="/tags/toyota">تويوتا</a>
  <span>قبل 3 ساعات</span>
  <article data-testid="post-article">
    سيارة نظيفة جداً، ماشية 45 ألف.
    السعر 85,000 ريال غير قابل للتفاوض.
  </article>
  <img src="/images/11173528712/1.jpg">
  <img data-src="/images/11173528712/2.jpg">
  <img src="/static/logo.png">
  <img src="/icons/share-icon.svg">
  <img src="/images/11173528712/1.jpg">
</body></html>`

func TestExtractDetailPage(t *testing.T) {
	url := "https://haraj.com.sa/11173528712/toyota-camry-2020/"
	c, err := ExtractDetailPage(detailPageHTML, url)
	if err != nil {
		t.Fatalf("ExtractDetailPage: %v", err)
	}

	want := map[string]string{
		models.FieldTitle:      "تويوتا كامري 2020 فل كامل",
		models.FieldListingID:  "11173528712",
		models.FieldCity:       "الرياض",
		models.FieldSellerName: "عبدالله",
		models.FieldSellerURL:  "https://haraj.com.sa/users/abdullah123",
		models.FieldCategory:   "حراج السيارات",
		models.FieldPostedTime: "قبل 3 ساعات",
	}
	for field, v := range want {
		if got := c.Fields[field]; got != v {
			t.Errorf("%s = %q, want %q", field, got, v)
		}
	}

	if price := c.Fields[models.FieldPrice]; !strings.Contains(price, "85,000") {
		t.Errorf("price = %q, want the riyal amount", price)
	}
	if len(c.Tags) != 2 {
		t.Errorf("tags = %v, want 2", c.Tags)
	}

	// Logo and icon are filtered, the duplicate collapses.
	if len(c.Images) != 2 {
		t.Fatalf("images = %v, want 2 photos", c.Images)
	}
	for _, img := range c.Images {
		if !strings.HasPrefix(img, "https://haraj.com.sa/images/") {
			t.Errorf("image not resolved: %q", img)
		}
	}
}

func TestExtractDetailPageMissingTitle(t *testing.T) {
	html := `<html><body><div>no heading here</div></body></html>`
	if _, err := ExtractDetailPage(html, "https://haraj.com.sa/11173528712/x/"); err == nil {
		t.Fatal("detail page without a title must be rejected")
	}
}

func TestNaturalID(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://haraj.com.sa/11173528712/toyota-camry/", "11173528712"},
		{"https://haraj.com.sa/11173528712/toyota-camry", "11173528712"},
		{"https://haraj.com.sa/tags/cars", ""},
	}
	for _, tt := range tests {
		if got := NaturalID(tt.url); got != tt.want {
			t.Errorf("NaturalID(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestPageURL(t *testing.T) {
	tests := []struct {
		base string
		page int
		want string
	}{
		{"https://haraj.com.sa/tags/cars", 1, "https://haraj.com.sa/tags/cars"},
		{"https://haraj.com.sa/tags/cars", 3, "https://haraj.com.sa/tags/cars?page=3"},
		{"https://haraj.com.sa/search?q=camry", 2, "https://haraj.com.sa/search?q=camry&page=2"},
	}
	for _, tt := range tests {
		if got := pageURL(tt.base, tt.page); got != tt.want {
			t.Errorf("pageURL(%q, %d) = %q, want %q", tt.base, tt.page, got, tt.want)
		}
	}
}
