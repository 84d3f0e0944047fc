package convert

import (
	"fmt"
	"strings"
)

// Error は変換中に見つかった譜面の問題
type Error struct {
	Course  string
	Branch  string // 分岐に依存しない場合は空
	Measure int    // 小節番号（0始まり）、不明なら -1
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	loc := []string{"course " + e.Course}
	if e.Branch != "" {
		loc = append(loc, e.Branch+" branch")
	}
	if e.Measure >= 0 {
		loc = append(loc, fmt.Sprintf("measure %d", e.Measure))
	}
	return fmt.Sprintf("convert: %s: %s", strings.Join(loc, ", "), e.Message)
}
