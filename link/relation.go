package link

import "strings"

// Commonly used relations from the IANA link relation registry.
const (
	Self       = "self"
	First      = "first"
	Prev       = "prev"
	Next       = "next"
	Last       = "last"
	Item       = "item"
	Collection = "collection"
	Edit       = "edit"
	Related    = "related"
	Describes  = "describedby"
	Profile    = "profile"
	Search     = "search"
	Up         = "up"
)

// https://www.iana.org/assignments/link-relations/link-relations.xhtml
var ianaRelations = map[string]struct{}{}

func init() {
	for _, rel := range strings.Fields(`
		about acl alternate amphtml appendix apple-touch-icon apple-touch-startup-image archives
		author blocked-by bookmark canonical chapter cite-as collection contents convertedfrom
		copyright create-form current describedby describes disclosure dns-prefetch duplicate
		edit edit-form edit-media enclosure external first glossary help hosts hub icon index
		intervalafter intervalbefore intervalcontains intervaldisjoint intervalduring
		intervalequals intervalfinishedby intervalfinishes intervalin intervalmeets
		intervalmetby intervaloverlappedby intervaloverlaps intervalstartedby intervalstarts
		item last latest-version license linkset lrdd manifest mask-icon media-feed memento
		micropub modulepreload monitor monitor-group next next-archive nofollow noopener
		noreferrer opener openid2.local_id openid2.provider original p3pv1 payment pingback
		preconnect predecessor-version prefetch preload prerender prev prev-archive preview
		previous privacy-policy profile publication related replies restconf search section
		self service service-desc service-doc service-meta sip-trunking-group sponsored start
		status stylesheet subsection successor-version sunset tag terms-of-service timegate
		timemap type ugc up version-history via webmention working-copy working-copy-of
	`) {
		ianaRelations[rel] = struct{}{}
	}
}

// IsIANA returns true if the relation is registered with IANA. Registered relations are never
// prefixed with a curie.
func IsIANA(rel string) bool {
	_, ok := ianaRelations[strings.ToLower(rel)]
	return ok
}
