package ir

// Variable names bound in the condition environment.
const (
	VarAge    = "AGE"
	VarCharm  = "CHR"
	VarIntel  = "INT"
	VarStr    = "STR"
	VarMoney  = "MNY"
	VarSpirit = "SPR"

	VarMaxAge    = "HAGE"
	VarMaxCharm  = "HCHR"
	VarMaxIntel  = "HINT"
	VarMaxStr    = "HSTR"
	VarMaxMoney  = "HMNY"
	VarMaxSpirit = "HSPR"

	VarMinCharm  = "LCHR"
	VarMinIntel  = "LINT"
	VarMinStr    = "LSTR"
	VarMinMoney  = "LMNY"
	VarMinSpirit = "LSPR"

	VarAllTalents      = "ATLT" // lifetime talent ids
	VarAllEvents       = "AEVT" // lifetime event ids
	VarAllAchievements = "AACH" // lifetime achievement ids
	VarAchieveCount    = "ACHV"

	VarTalents    = "TLT"  // active talent ids of this run
	VarRunEvents  = "EVT"  // event ids seen this run
	VarTickEvents = "TEVT" // event ids of the current tick

	VarOverall  = "SUM"
	VarFinished = "TMS"
)

// TickVariables are bound from birth until the end of a run.
var TickVariables = []string{
	VarAge, VarCharm, VarIntel, VarStr, VarMoney, VarSpirit,
	VarMaxAge, VarMaxCharm, VarMaxIntel, VarMaxStr, VarMaxMoney, VarMaxSpirit,
	VarMinCharm, VarMinIntel, VarMinStr, VarMinMoney, VarMinSpirit,
	VarAllTalents, VarAllEvents, VarAllAchievements, VarAchieveCount,
	VarTalents, VarRunEvents, VarTickEvents,
}

// EndVariables are bound only while END achievements are checked.
var EndVariables = []string{VarOverall, VarFinished}

// Declared reports whether name is bound in the given phase.
func Declared(name string, phase Opportunity) bool {
	for _, v := range TickVariables {
		if v == name {
			return true
		}
	}
	if phase == OpportunityEnd {
		for _, v := range EndVariables {
			if v == name {
				return true
			}
		}
	}
	return false
}
