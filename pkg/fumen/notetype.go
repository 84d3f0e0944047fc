package fumen

import "fmt"

// NoteType はフーメンのノーツ種別コード
type NoteType int32

// ノーツ種別
// 0x0F以降はプラットフォーム固有の未解析コード。意味は不明だが値はそのまま保持する。
const (
	NoteDon         NoteType = 0x01
	NoteDon2        NoteType = 0x02
	NoteDon3        NoteType = 0x03
	NoteDon4        NoteType = 0x04
	NoteKa          NoteType = 0x05
	NoteKa2         NoteType = 0x06
	NoteDrumroll    NoteType = 0x07
	NoteDonBig      NoteType = 0x08
	NoteKaBig       NoteType = 0x09
	NoteDrumrollBig NoteType = 0x0A
	NoteBalloon     NoteType = 0x0B
	NoteDonBigHand  NoteType = 0x0C
	NoteKusudama    NoteType = 0x0D
	NoteKaBigHand   NoteType = 0x0E
	NoteUnknown1    NoteType = 0x0F
	NoteUnknown2    NoteType = 0x10
	NoteUnknown3    NoteType = 0x11
	NoteUnknown4    NoteType = 0x12
	NoteUnknown5    NoteType = 0x13
	NoteUnknown6    NoteType = 0x14
	NoteUnknown7    NoteType = 0x15
	NoteUnknown8    NoteType = 0x16
	NoteUnknown9    NoteType = 0x17
	NoteUnknown10   NoteType = 0x18
	NoteUnknown11   NoteType = 0x19
	NoteUnknown12   NoteType = 0x1A
	NoteUnknown13   NoteType = 0x22
	NoteDrumroll2   NoteType = 0x62
)

var noteTypeNames = map[NoteType]string{
	NoteDon:         "Don",
	NoteDon2:        "Don2",
	NoteDon3:        "Don3",
	NoteDon4:        "Don4",
	NoteKa:          "Ka",
	NoteKa2:         "Ka2",
	NoteDrumroll:    "Drumroll",
	NoteDonBig:      "DON",
	NoteKaBig:       "KA",
	NoteDrumrollBig: "DRUMROLL",
	NoteBalloon:     "Balloon",
	NoteDonBigHand:  "DON2",
	NoteKusudama:    "Kusudama",
	NoteKaBigHand:   "KA2",
	NoteUnknown1:    "Unknown1",
	NoteUnknown2:    "Unknown2",
	NoteUnknown3:    "Unknown3",
	NoteUnknown4:    "Unknown4",
	NoteUnknown5:    "Unknown5",
	NoteUnknown6:    "Unknown6",
	NoteUnknown7:    "Unknown7",
	NoteUnknown8:    "Unknown8",
	NoteUnknown9:    "Unknown9",
	NoteUnknown10:   "Unknown10",
	NoteUnknown11:   "Unknown11",
	NoteUnknown12:   "Unknown12",
	NoteUnknown13:   "Unknown13",
	NoteDrumroll2:   "Drumroll2",
}

// Known は種別コードが対応表に含まれているかを返す
func (t NoteType) Known() bool {
	_, ok := noteTypeNames[t]
	return ok
}

// String returns the name used by fumen tooling for the note type.
func (t NoteType) String() string {
	if name, ok := noteTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("NoteType(0x%02x)", int32(t))
}

// MarshalYAML はダンプ時に種別名を出力する
func (t NoteType) MarshalYAML() (any, error) {
	return t.String(), nil
}

// IsBalloon は風船・くす玉かどうか（ヒット数フィールドを持つ）
func (t NoteType) IsBalloon() bool {
	return t == NoteBalloon || t == NoteKusudama
}

// IsRoll は連打・風船系の長いノーツかどうか
func (t NoteType) IsRoll() bool {
	return t == NoteDrumroll || t == NoteDrumrollBig || t.IsBalloon()
}

// HasTrailer はノーツレコードの後ろに8バイトの未解析データが続くかどうか
func (t NoteType) HasTrailer() bool {
	return t.IsRoll()
}
