package fumen

import "fmt"

// FormatError はバイナリの内容が解釈できない場合のエラー
type FormatError struct {
	Offset  int         // エラー位置（ファイル先頭からのバイト数）
	Measure int         // 小節番号（0始まり、ヘッダなら-1）
	Branch  BranchIndex // 分岐
	Note    int         // 分岐内のノーツ番号
	Message string
}

// Error implements the error interface.
func (e *FormatError) Error() string {
	if e.Measure < 0 {
		return fmt.Sprintf("fumen: %s at offset %d", e.Message, e.Offset)
	}
	return fmt.Sprintf("fumen: %s at offset %d (measure %d, %s branch, note %d)",
		e.Message, e.Offset, e.Measure, e.Branch, e.Note)
}
