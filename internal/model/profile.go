package model

// SourceKind identifies an enrichment data source.
type SourceKind string

const (
	SourceDocument      SourceKind = "document"
	SourceGitHub        SourceKind = "github"
	SourceORCID         SourceKind = "orcid"
	SourceStackOverflow SourceKind = "stackoverflow"
	SourceWikidata      SourceKind = "wikidata"
	SourceGitLab        SourceKind = "gitlab"
	SourceDevTo         SourceKind = "devto"
)

// DefaultSourceOrder is the fixed merge precedence for enrichment sources.
// The original document always precedes external sources.
var DefaultSourceOrder = []SourceKind{
	SourceGitHub,
	SourceORCID,
	SourceStackOverflow,
	SourceWikidata,
	SourceGitLab,
	SourceDevTo,
}

// Education is a single education entry from a profile.
type Education struct {
	Institution string `json:"institution"`
	Degree      string `json:"degree,omitempty"`
	Field       string `json:"field,omitempty"`
	Years       string `json:"years,omitempty"`
}

// Experience is a single work-history entry from a profile.
type Experience struct {
	Company string `json:"company"`
	Title   string `json:"title,omitempty"`
	Years   string `json:"years,omitempty"`
}

// RawProfile holds the fields extracted from a single uploaded document.
// It is produced once by the document extractor and never mutated.
type RawProfile struct {
	Name        string       `json:"name,omitempty"`
	Email       string       `json:"email,omitempty"`
	Phone       string       `json:"phone,omitempty"`
	Company     string       `json:"company,omitempty"`
	Title       string       `json:"title,omitempty"`
	Location    string       `json:"location,omitempty"`
	Bio         string       `json:"bio,omitempty"`
	Website     string       `json:"website,omitempty"`
	GitHubURL   string       `json:"github_url,omitempty"`
	LinkedInURL string       `json:"linkedin_url,omitempty"`
	OrcidURL    string       `json:"orcid_url,omitempty"`
	Skills      []string     `json:"skills,omitempty"`
	Education   []Education  `json:"education,omitempty"`
	Experience  []Experience `json:"experience,omitempty"`
}

// PartialProfile is the normalized shape every source adapter maps into.
// All fields are optional; empty means the source did not supply it.
type PartialProfile struct {
	Name        string      `json:"name,omitempty"`
	Email       string      `json:"email,omitempty"`
	Company     string      `json:"company,omitempty"`
	Title       string      `json:"title,omitempty"`
	Location    string      `json:"location,omitempty"`
	Bio         string      `json:"bio,omitempty"`
	Website     string      `json:"website,omitempty"`
	GitHubURL   string      `json:"github_url,omitempty"`
	LinkedInURL string      `json:"linkedin_url,omitempty"`
	OrcidURL    string      `json:"orcid_url,omitempty"`
	Skills      []string    `json:"skills,omitempty"`
	Education   []Education `json:"education,omitempty"`
}

// Repository is a code repository attributed to the person.
type Repository struct {
	Name        string `json:"name"`
	URL         string `json:"url"`
	Description string `json:"description,omitempty"`
	Language    string `json:"language,omitempty"`
	Stars       int    `json:"stars,omitempty"`
}

// Publication is an academic work attributed to the person.
type Publication struct {
	Title   string `json:"title"`
	Journal string `json:"journal,omitempty"`
	Year    int    `json:"year,omitempty"`
	URL     string `json:"url,omitempty"`
}

// Article is a written piece attributed to the person (blog posts, etc.).
type Article struct {
	Title       string `json:"title"`
	URL         string `json:"url,omitempty"`
	PublishedAt string `json:"published_at,omitempty"`
}

// EnrichmentRecord is one external source's contribution to a profile,
// plus provenance metadata. Records are immutable once created.
type EnrichmentRecord struct {
	Source       SourceKind     `json:"source"`
	URL          string         `json:"url,omitempty"`
	Verified     bool           `json:"verified"`
	Profile      PartialProfile `json:"profile"`
	Repositories []Repository   `json:"repositories,omitempty"`
	Publications []Publication  `json:"publications,omitempty"`
	Projects     []Repository   `json:"projects,omitempty"`
	Articles     []Article      `json:"articles,omitempty"`
}

// SourceRef is the provenance-stripped form of an EnrichmentRecord as
// stored on a contact. The sources list is append-only across merges.
type SourceRef struct {
	Source   SourceKind `json:"source"`
	URL      string     `json:"url,omitempty"`
	Verified bool       `json:"verified"`
}

// EnrichedProfile is the canonical merged record for one enrichment run.
type EnrichedProfile struct {
	Name        string       `json:"name,omitempty"`
	Email       string       `json:"email,omitempty"`
	Phone       string       `json:"phone,omitempty"`
	Company     string       `json:"company,omitempty"`
	Title       string       `json:"title,omitempty"`
	Location    string       `json:"location,omitempty"`
	Bio         string       `json:"bio,omitempty"`
	Website     string       `json:"website,omitempty"`
	GitHubURL   string       `json:"github_url,omitempty"`
	LinkedInURL string       `json:"linkedin_url,omitempty"`
	OrcidURL    string       `json:"orcid_url,omitempty"`
	Skills      []string     `json:"skills,omitempty"`
	Education   []Education  `json:"education,omitempty"`
	Experience  []Experience `json:"experience,omitempty"`

	Repositories []Repository  `json:"repositories,omitempty"`
	Publications []Publication `json:"publications,omitempty"`
	Projects     []Repository  `json:"projects,omitempty"`
	Articles     []Article     `json:"articles,omitempty"`

	Sources         []SourceRef `json:"sources"`
	ConfidenceScore float64     `json:"confidence_score"`
}

// Identifiers holds the per-source candidate identifiers derived from a
// raw profile. An empty string means no candidate for that source.
type Identifiers struct {
	GitHubUsername string `json:"github_username,omitempty"`
	OrcidID        string `json:"orcid_id,omitempty"`
	FullName       string `json:"full_name,omitempty"`
	NameSlug       string `json:"name_slug,omitempty"`
	GitLabUsername string `json:"gitlab_username,omitempty"`
	DevToUsername  string `json:"devto_username,omitempty"`
}
