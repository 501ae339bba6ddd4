package driver

import "fmt"

const (
	DefaultBaseURL   = "https://api.archives-ouvertes.fr"
	DefaultChildRows = 10000

	StructurePath = "/ref/structure/"
	SearchPath    = "/search/"

	// DescribeFields are the record fields returned by Describe.
	DescribeFields = "acronym_s,label_s,valid_s,type_s,address_s,url_s"
)

// Solr query builders for the referential. The id is always normalized
// before it reaches these functions.

func childrenQuery(id string, rows int) map[string]string {
	return map[string]string{
		"wt":   "json",
		"rows": fmt.Sprint(rows),
		"q":    fmt.Sprintf("parentDocid_i:%s", id),
		"fl":   "docid",
	}
}

func parentsQuery(id string) map[string]string {
	return map[string]string{
		"wt":   "json",
		"rows": "1",
		"q":    fmt.Sprintf("docid:%q", id),
		"fl":   "parentDocid_i",
	}
}

func describeQuery(id string) map[string]string {
	return map[string]string{
		"wt": "json",
		"q":  fmt.Sprintf("docid:%s", id),
		"fl": DescribeFields,
	}
}

func countQuery(id string) map[string]string {
	return map[string]string{
		"wt":   "json",
		"rows": "0",
		"q":    fmt.Sprintf("authStructId_i:%s", id),
	}
}
