package fumen

import (
	"encoding/binary"
	"fmt"
	"math"
)

// ByteOrder はフーメンのバイトオーダー。ファイル内には明示されない。
type ByteOrder int

const (
	LittleEndian ByteOrder = iota
	BigEndian
)

func (o ByteOrder) order() binary.ByteOrder {
	if o == BigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

func (o ByteOrder) appender() binary.AppendByteOrder {
	if o == BigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// String returns "little" or "big".
func (o ByteOrder) String() string {
	if o == BigEndian {
		return "big"
	}
	return "little"
}

// MarshalYAML はダンプ時にバイトオーダー名を出力する
func (o ByteOrder) MarshalYAML() (any, error) {
	return o.String(), nil
}

// measureCountOffset は小節数フィールドの位置
const measureCountOffset = 512

// DetectByteOrder は小節数フィールドを両方のオーダーで読み、小さい方を採用する。
// 実データでは片方だけが妥当な小節数になる。
func DetectByteOrder(header []byte) ByteOrder {
	if len(header) < measureCountOffset+4 {
		return LittleEndian
	}
	field := header[measureCountOffset : measureCountOffset+4]
	if binary.BigEndian.Uint32(field) < binary.LittleEndian.Uint32(field) {
		return BigEndian
	}
	return LittleEndian
}

// TimingWindow は判定幅（良・可・不可）のミリ秒
type TimingWindow struct {
	Good float32
	OK   float32
	Bad  float32
}

// 難易度ごとの判定幅
var (
	TimingWindowEasy = TimingWindow{41.7083358764648, 108.441665649414, 125.125}
	TimingWindowHard = TimingWindow{25.0250015258789, 75.075004577637, 108.441665649414}
)

// Header は520バイトのヘッダ
type Header struct {
	Order         ByteOrder                  `yaml:"order"`
	TimingWindows [TimingWindowCount]float32 `yaml:"timingWindows,flow"`

	HasBranches int32 `yaml:"hasBranches"`
	HPMax       int32 `yaml:"hpMax"`
	HPClear     int32 `yaml:"hpClear"`
	HPGainGood  int32 `yaml:"hpGainGood"`
	HPGainOK    int32 `yaml:"hpGainOk"`
	HPLossBad   int32 `yaml:"hpLossBad"`

	NormalNormalRatio       int32 `yaml:"normalNormalRatio"`
	NormalProfessionalRatio int32 `yaml:"normalProfessionalRatio"`
	NormalMasterRatio       int32 `yaml:"normalMasterRatio"`

	BranchPtsGood        int32 `yaml:"branchPtsGood"`
	BranchPtsOK          int32 `yaml:"branchPtsOk"`
	BranchPtsBad         int32 `yaml:"branchPtsBad"`
	BranchPtsDrumroll    int32 `yaml:"branchPtsDrumroll"`
	BranchPtsGoodBig     int32 `yaml:"branchPtsGoodBig"`
	BranchPtsOKBig       int32 `yaml:"branchPtsOkBig"`
	BranchPtsDrumrollBig int32 `yaml:"branchPtsDrumrollBig"`
	BranchPtsBalloon     int32 `yaml:"branchPtsBalloon"`
	BranchPtsKusudama    int32 `yaml:"branchPtsKusudama"`
	BranchPtsUnknown     int32 `yaml:"branchPtsUnknown"`

	DummyData    int32  `yaml:"dummyData"`
	MeasureCount uint32 `yaml:"measureCount"`
	UnknownData  int32  `yaml:"unknownData"`
}

// DefaultHeader は変換の起点となる既定値のヘッダを返す
func DefaultHeader() Header {
	h := Header{
		Order:                   LittleEndian,
		HPMax:                   10000,
		HPClear:                 8000,
		HPGainGood:              10,
		HPGainOK:                5,
		HPLossBad:               -20,
		NormalNormalRatio:       65536,
		NormalProfessionalRatio: 65536,
		NormalMasterRatio:       65536,
		BranchPtsGood:           20,
		BranchPtsOK:             10,
		BranchPtsBad:            0,
		BranchPtsDrumroll:       1,
		BranchPtsGoodBig:        20,
		BranchPtsOKBig:          10,
		BranchPtsDrumrollBig:    1,
		BranchPtsBalloon:        30,
		BranchPtsKusudama:       30,
		BranchPtsUnknown:        20,
		DummyData:               12345678,
	}
	h.SetTimingWindows(TimingWindowHard)
	return h
}

// SetTimingWindows は判定幅を36回繰り返してヘッダ先頭を埋める
func (h *Header) SetTimingWindows(w TimingWindow) {
	for i := 0; i < TimingWindowCount; i += 3 {
		h.TimingWindows[i] = w.Good
		h.TimingWindows[i+1] = w.OK
		h.TimingWindows[i+2] = w.Bad
	}
}

// DifficultyBytes は難易度を識別する2バイト（クリアノルマの下位2バイト）
func (h *Header) DifficultyBytes() [2]byte {
	return [2]byte{byte(h.HPClear), byte(h.HPClear >> 8)}
}

// intFields はオフセット432から511までの32bit整数フィールドを並び順に返す
func (h *Header) intFields() []*int32 {
	return []*int32{
		&h.HasBranches,
		&h.HPMax,
		&h.HPClear,
		&h.HPGainGood,
		&h.HPGainOK,
		&h.HPLossBad,
		&h.NormalNormalRatio,
		&h.NormalProfessionalRatio,
		&h.NormalMasterRatio,
		&h.BranchPtsGood,
		&h.BranchPtsOK,
		&h.BranchPtsBad,
		&h.BranchPtsDrumroll,
		&h.BranchPtsGoodBig,
		&h.BranchPtsOKBig,
		&h.BranchPtsDrumrollBig,
		&h.BranchPtsBalloon,
		&h.BranchPtsKusudama,
		&h.BranchPtsUnknown,
		&h.DummyData,
	}
}

// decodeHeader は520バイトからヘッダを復元する。raw は長さ検査済みであること。
func decodeHeader(raw []byte, order ByteOrder) Header {
	bo := order.order()
	h := Header{Order: order}
	off := 0
	for i := range h.TimingWindows {
		h.TimingWindows[i] = math.Float32frombits(bo.Uint32(raw[off:]))
		off += 4
	}
	for _, f := range h.intFields() {
		*f = int32(bo.Uint32(raw[off:]))
		off += 4
	}
	h.MeasureCount = bo.Uint32(raw[off:])
	h.UnknownData = int32(bo.Uint32(raw[off+4:]))
	return h
}

// appendHeader はヘッダをバイト列に追加する
func appendHeader(buf []byte, h *Header) []byte {
	ao := h.Order.appender()
	for _, w := range h.TimingWindows {
		buf = ao.AppendUint32(buf, math.Float32bits(w))
	}
	for _, f := range h.intFields() {
		buf = ao.AppendUint32(buf, uint32(*f))
	}
	buf = ao.AppendUint32(buf, h.MeasureCount)
	buf = ao.AppendUint32(buf, uint32(h.UnknownData))
	return buf
}

// Anomaly は過去に観測された値の範囲外だったヘッダフィールド
type Anomaly struct {
	Field  string
	Offset int
	Value  any
}

func (a Anomaly) String() string {
	return fmt.Sprintf("%s (offset %d) = %v", a.Field, a.Offset, a.Value)
}

type observedSet struct {
	field  string
	offset int
	value  func(h *Header) int32
	values []int32
}

// observedValues は実機フーメンで確認された値の集合
var observedValues = []observedSet{
	{"HasBranches", 432, func(h *Header) int32 { return h.HasBranches }, []int32{0, 1}},
	{"HPMax", 436, func(h *Header) int32 { return h.HPMax }, []int32{10000}},
	{"HPClear", 440, func(h *Header) int32 { return h.HPClear }, []int32{6000, 7000, 8000}},
	{"NormalNormalRatio", 456, func(h *Header) int32 { return h.NormalNormalRatio }, []int32{65536}},
	{"BranchPtsGood", 468, func(h *Header) int32 { return h.BranchPtsGood }, []int32{0, 20}},
	{"BranchPtsOK", 472, func(h *Header) int32 { return h.BranchPtsOK }, []int32{0, 10}},
	{"BranchPtsBad", 476, func(h *Header) int32 { return h.BranchPtsBad }, []int32{0}},
	{"BranchPtsDrumroll", 480, func(h *Header) int32 { return h.BranchPtsDrumroll }, []int32{0, 1}},
	{"BranchPtsGoodBig", 484, func(h *Header) int32 { return h.BranchPtsGoodBig }, []int32{0, 20}},
	{"BranchPtsOKBig", 488, func(h *Header) int32 { return h.BranchPtsOKBig }, []int32{0, 10}},
	{"BranchPtsDrumrollBig", 492, func(h *Header) int32 { return h.BranchPtsDrumrollBig }, []int32{0, 1}},
	{"BranchPtsBalloon", 496, func(h *Header) int32 { return h.BranchPtsBalloon }, []int32{0, 30}},
	{"BranchPtsKusudama", 500, func(h *Header) int32 { return h.BranchPtsKusudama }, []int32{0, 30}},
}

// Check はヘッダの各フィールドを観測済みの値と比較し、外れたものを返す。
// 機種ごとの差異があるため、呼び出し側は警告として扱う。
func (h *Header) Check() []Anomaly {
	var anomalies []Anomaly
	for _, o := range observedValues {
		v := o.value(h)
		if !containsInt32(o.values, v) {
			anomalies = append(anomalies, Anomaly{Field: o.field, Offset: o.offset, Value: v})
		}
	}
	for i := 0; i < TimingWindowCount; i += 3 {
		w := TimingWindow{h.TimingWindows[i], h.TimingWindows[i+1], h.TimingWindows[i+2]}
		if w != TimingWindowEasy && w != TimingWindowHard {
			anomalies = append(anomalies, Anomaly{Field: "TimingWindows", Offset: i * 4, Value: w})
			break
		}
	}
	return anomalies
}

func containsInt32(values []int32, v int32) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}
