package convert

import (
	"github.com/zurustar/tja2fumen/pkg/fumen"
	"github.com/zurustar/tja2fumen/pkg/tja"
)

// hpClear はクリアに必要な魂ゲージ量
var hpClear = map[tja.Difficulty]int32{
	tja.DifficultyEasy:   6000,
	tja.DifficultyNormal: 7000,
	tja.DifficultyHard:   7000,
	tja.DifficultyOni:    8000,
	tja.DifficultyUra:    8000,
}

// TimingWindow は難易度ごとの判定幅
func TimingWindow(d tja.Difficulty) fumen.TimingWindow {
	if d == tja.DifficultyEasy || d == tja.DifficultyNormal {
		return fumen.TimingWindowEasy
	}
	return fumen.TimingWindowHard
}

// synthesizeHeader は変換結果からヘッダを組み立てる。魂ゲージは最後に設定する。
func (c *Converter) synthesizeHeader(out *fumen.Chart, chart *tja.Chart, stats [tja.BranchCount]branchStats) {
	h := &out.Header
	d := chart.Course.ID.Difficulty

	h.SetTimingWindows(TimingWindow(d))
	h.HPClear = hpClear[d]
	if chart.HasBranches {
		h.HasBranches = 1
	}
	h.MeasureCount = uint32(len(out.Measures))

	var conditions []tja.ConditionType
	for _, s := range stats {
		conditions = append(conditions, s.conditions...)
	}
	switch {
	case allConditions(conditions, tja.ConditionDrumroll):
		// 連打数だけで分岐する
		h.BranchPtsGood = 0
		h.BranchPtsOK = 0
		h.BranchPtsGoodBig = 0
		h.BranchPtsOKBig = 0
		h.BranchPtsBalloon = 0
		h.BranchPtsKusudama = 0
	case allConditions(conditions, tja.ConditionPercentage):
		h.BranchPtsDrumroll = 0
		h.BranchPtsDrumrollBig = 0
	}

	normal := float64(stats[tja.BranchNormal].hits)
	if pro := stats[tja.BranchProfessional].hits; pro > 0 {
		h.NormalProfessionalRatio = int32(65536 * normal / float64(pro))
	}
	if master := stats[tja.BranchMaster].hits; master > 0 {
		h.NormalMasterRatio = int32(65536 * normal / float64(master))
	}

	if c.gauge == nil {
		return
	}
	notes := stats[tja.BranchNormal].hits
	rates, ok := c.gauge.Lookup(notes, d.String(), chart.Course.Level)
	if !ok {
		c.log.Debug("No soul gauge entry, keeping defaults",
			"course", chart.Course.ID.String(), "notes", notes, "level", chart.Course.Level)
		return
	}
	h.HPGainGood = rates.Good
	h.HPGainOK = rates.OK
	h.HPLossBad = rates.Bad
}

func allConditions(conditions []tja.ConditionType, t tja.ConditionType) bool {
	if len(conditions) == 0 {
		return false
	}
	for _, c := range conditions {
		if c != t {
			return false
		}
	}
	return true
}
