// Package fumen は太鼓のフーメン（コンパイル済み譜面バイナリ）のレコードモデルと
// 読み書きを提供する。
//
// レイアウト:
//
//	header   520 bytes
//	measure  40 bytes  × MeasureCount
//	  branch 8 bytes   × 3 (normal, professional, master)
//	    note 24 bytes  × branch.Length (+8 bytes trailer for roll kinds)
package fumen

import "fmt"

// レコードサイズ
const (
	HeaderSize        = 520
	MeasureSize       = 40
	BranchSize        = 8
	NoteSize          = 24
	NoteTrailerSize   = 8
	TimingWindowCount = 108
)

// BranchIndex は譜面分岐の番号
type BranchIndex int

// 分岐は常に3つ存在する
const (
	BranchNormal BranchIndex = iota
	BranchProfessional
	BranchMaster
	BranchCount
)

var branchNames = [BranchCount]string{"normal", "professional", "master"}

// String returns the branch name.
func (b BranchIndex) String() string {
	if b >= 0 && b < BranchCount {
		return branchNames[b]
	}
	return fmt.Sprintf("BranchIndex(%d)", int(b))
}

// Branches は全分岐を順番に返す
func Branches() []BranchIndex {
	return []BranchIndex{BranchNormal, BranchProfessional, BranchMaster}
}

// Note は24バイトのノーツレコード
type Note struct {
	Type    NoteType `yaml:"type"`
	Pos     float32  `yaml:"pos"`
	Item    int32    `yaml:"item,omitempty"`
	Padding float32  `yaml:"padding,omitempty"`
	// 風船・くす玉のみ
	Hits        uint16 `yaml:"hits,omitempty"`
	HitsPadding uint16 `yaml:"hitsPadding,omitempty"`
	// それ以外
	ScoreInit uint16 `yaml:"scoreInit,omitempty"`
	ScoreDiff uint16 `yaml:"scoreDiff,omitempty"`

	Duration float32 `yaml:"duration,omitempty"`

	// Trailer は連打系ノーツの後ろの8バイト。意味は不明なので読んだまま書き戻す。
	Trailer [NoteTrailerSize]byte `yaml:"-"`

	// MultiMeasure は小節をまたぐ連打かどうか（変換時のみ使用、バイナリには書かれない）
	MultiMeasure bool `yaml:"-"`
}

// Branch は分岐ヘッダとそのノーツ
type Branch struct {
	Length  uint16  `yaml:"length"`
	Padding uint16  `yaml:"padding,omitempty"`
	Speed   float32 `yaml:"speed"`
	Notes   []Note  `yaml:"notes,omitempty"`
}

// Measure は40バイトの小節レコードと3つの分岐
type Measure struct {
	BPM         float32  `yaml:"bpm"`
	OffsetStart float32  `yaml:"offsetStart"`
	Gogo        bool     `yaml:"gogo"`
	Barline     bool     `yaml:"barline"`
	Padding1    uint16   `yaml:"padding1,omitempty"`
	BranchInfo  [6]int32 `yaml:"branchInfo,flow"`
	Padding2    int32    `yaml:"padding2,omitempty"`

	Branches [BranchCount]Branch `yaml:"branches"`

	// 以下はバイナリに保存されない派生値
	OffsetEnd float64 `yaml:"offsetEnd"`
	Duration  float64 `yaml:"duration"`

	// gogo/barlineバイトの生の値（0/1以外も往復できるよう保持する）
	gogoRaw    uint8
	barlineRaw uint8
}

// NewMeasure は既定値の小節を作成する
func NewMeasure() *Measure {
	m := &Measure{Barline: true}
	for i := range m.BranchInfo {
		m.BranchInfo[i] = -1
	}
	for i := range m.Branches {
		m.Branches[i].Speed = 1.0
	}
	return m
}

// Chart はフーメン1ファイル分
type Chart struct {
	Header   Header    `yaml:"header"`
	Measures []Measure `yaml:"measures"`
}

// NoteCount は指定分岐の総ノーツ数を返す
func (c *Chart) NoteCount(b BranchIndex) int {
	n := 0
	for i := range c.Measures {
		n += len(c.Measures[i].Branches[b].Notes)
	}
	return n
}

// HasBranches は専門・達人分岐に1つでもノーツがあるかどうか
func (c *Chart) HasBranches() bool {
	return c.NoteCount(BranchProfessional) > 0 || c.NoteCount(BranchMaster) > 0
}

func boolByte(raw uint8, v bool) uint8 {
	if v {
		if raw != 0 {
			return raw
		}
		return 1
	}
	return 0
}
