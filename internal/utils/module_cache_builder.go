package utils

import (
	"strconv"
	"strings"
)

func BuildModulesListCacheKey(limit int, cursor string, status, query *string) string {
	s := ""
	if status != nil {
		s = strings.ToUpper(strings.TrimSpace(*status))
	}
	q := ""
	if query != nil {
		q = strings.ToLower(strings.TrimSpace(*query))
	}

	return "modules:list:v1:limit=" + strconv.Itoa(limit) +
		":cursor=" + cursor +
		":status=" + s +
		":q=" + q
}
