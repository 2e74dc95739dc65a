package db

import "strings"

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ContainsPattern returns an ILIKE pattern matching q literally anywhere in
// the column value.
func ContainsPattern(q string) string {
	return "%" + likeEscaper.Replace(q) + "%"
}
