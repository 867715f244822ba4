package follows

// Configuration types

type Config struct {
	Follows  []Entry  `yaml:"follows"`
	Settings Settings `yaml:"settings"`
}

type Entry struct {
	URL  string `yaml:"url"`
	Name string `yaml:"name,omitempty"` // Optional display label, shown until the collection is fetched
}

type Settings struct {
	RefreshInterval  int  `yaml:"refresh_interval"`  // seconds
	FetchConcurrency int  `yaml:"fetch_concurrency"` // concurrent collection fetches per refresh
	MaxItems         int  `yaml:"max_items"`
	ExtractContent   bool `yaml:"extract_content"` // enable readable-content extraction
}
