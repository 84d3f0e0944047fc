// Package source loads TJA files and converts their text to UTF-8.
package source

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/zurustar/tja2fumen/pkg/fileutil"
)

// Encoding は読み込んだファイルの文字コード
type Encoding int

const (
	EncodingUTF8 Encoding = iota
	EncodingUTF8BOM
	EncodingUTF16
	EncodingShiftJIS
)

var encodingNames = map[Encoding]string{
	EncodingUTF8:     "UTF-8",
	EncodingUTF8BOM:  "UTF-8 (BOM)",
	EncodingUTF16:    "UTF-16",
	EncodingShiftJIS: "Shift-JIS",
}

// String returns the encoding name.
func (e Encoding) String() string {
	if name, ok := encodingNames[e]; ok {
		return name
	}
	return "unknown"
}

// Ext は譜面ファイルの拡張子
const Ext = ".tja"

// Source はUTF-8に変換済みの譜面ファイル
type Source struct {
	Path     string   // ファイルパス
	Text     string   // UTF-8に変換された内容
	Encoding Encoding // 元の文字コード
}

// BaseName は拡張子を除いたファイル名
func (s *Source) BaseName() string {
	name := filepath.Base(s.Path)
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// Load は譜面ファイルを読み込む
func Load(path string) (*Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	text, enc, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("failed to convert encoding of %s: %w", path, err)
	}
	return &Source{Path: path, Text: text, Encoding: enc}, nil
}

// Decode はバイト列をUTF-8文字列に変換する。
// BOMがあればそれに従い、正しいUTF-8ならそのまま、それ以外はShift-JISとみなす。
func Decode(data []byte) (string, Encoding, error) {
	switch {
	case bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}):
		text, err := decodeWith(data, unicode.UTF8BOM.NewDecoder())
		return text, EncodingUTF8BOM, err
	case bytes.HasPrefix(data, []byte{0xFF, 0xFE}), bytes.HasPrefix(data, []byte{0xFE, 0xFF}):
		text, err := decodeWith(data, unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder())
		return text, EncodingUTF16, err
	case utf8.Valid(data):
		return string(data), EncodingUTF8, nil
	}
	text, err := decodeWith(data, japanese.ShiftJIS.NewDecoder())
	return text, EncodingShiftJIS, err
}

func decodeWith(data []byte, t transform.Transformer) (string, error) {
	out, err := io.ReadAll(transform.NewReader(bytes.NewReader(data), t))
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// Find は変換対象のファイルを返す。path がディレクトリなら配下の .tja をすべて探す。
func Find(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	files, err := fileutil.FindFilesByExt(path, Ext)
	if err != nil {
		return nil, fmt.Errorf("failed to find chart files: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no %s files found in %s", Ext, path)
	}
	return files, nil
}
