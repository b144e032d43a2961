package analyzer

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/BerylCAtieno/trial-protocol-analyzer/internal/models"
)

const maxScore = 10.0

const (
	StorageColdChain       = "Cold chain (2-8°C)"
	StorageFrozen          = "Frozen (-20°C to -70°C)"
	StorageRoomTemperature = "Room temperature (15-30°C)"
	StorageStandard        = "standard conditions"

	SupplyStandard = "standard storage"

	ChallengeComplexEligibility  = "Complex eligibility criteria"
	ChallengeHighVisitBurden     = "High visit burden"
	ChallengeMultipleProcedures  = "Multiple complex procedures"
	ChallengeExtendedDuration    = "Extended study duration"
	ChallengeInvasiveProcedures  = "Invasive procedures"
	ChallengePediatricPopulation = "Pediatric population"
	ChallengeElderlyPopulation   = "Elderly population"
	ChallengeRareDisease         = "Rare disease population"

	DistributionTemperatureControlled = "Temperature-controlled shipping required"
	DistributionShelfLife             = "Limited shelf life"
	DistributionMultipleSites         = "Multiple site distribution"
	DistributionInternational         = "International shipping"

	UnknownDemand = "Unknown demand"
)

func re(pattern string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)` + pattern)
}

var (
	coldChainTerms    = re(`2\s*(?:-|–|to)\s*8\s*°?\s*C\b|refrigerat|cold[- ]chain`)
	frozenTerms       = re(`-\s*(?:20|70|80)\s*°?\s*C\b|frozen|freezer`)
	roomTempTerms     = re(`15\s*(?:-|–|to)\s*(?:25|30)\s*°?\s*C\b|room temperature|ambient temperature`)
	controlledTerms   = re(`controlled substance|schedule (?:ii|iii|iv|v)\b|narcotic|opioid`)
	reconstitutionRx  = re(`reconstitut|dilution|diluted|compounding|dose preparation`)
	lightTerms        = re(`protect(?:ed)? from light|light[- ]sensitiv|photosensitiv`)
	humidityTerms     = re(`humidity|moisture|desiccant`)
	tempShippingTerms = re(`temperature[- ]controlled|temperature monitor|dry ice|shipping temperature|2\s*(?:-|–|to)\s*8\s*°?\s*C\b|cold[- ]chain`)
	shelfLifeTerms    = re(`shelf[- ]life|expiry|expiration|limited stability`)
	internationalRx   = re(`international|\bimport(?:s|ed|ation)?\b|\bexport(?:s|ed|ation)?\b|customs|cross[- ]border`)

	patientCountRx = re(`(\d+)\s+patients`)
	sampleSizeRx   = re(`\bn\s*=\s*(\d+)`)
	durationRx     = re(`(\d+)\s+(weeks|months)`)

	visitMarkerRx = re(`visit|screening|baseline|follow-up|week\s+\d+|day\s+\d+`)
	weekNumberRx  = re(`week\s+(\d+)`)
	monthNumberRx = re(`month\s+(\d+)`)
	whitespaceRx  = regexp.MustCompile(`\s+`)

	eligibilityRx = re(`inclusion|exclusion`)
	invasiveRx    = re(`biopsy|spinal|lumbar`)
	pediatricRx   = re(`pediatric|paediatric|children|infant|adolescent`)
	elderlyRx     = re(`elderly|geriatric|older adults`)
	rareDiseaseRx = re(`rare disease|orphan`)
)

type weightedTerm struct {
	pattern *regexp.Regexp
	weight  float64
}

var procedureWeights = []weightedTerm{
	{re(`biopsy`), 3},
	{re(`\bmri\b|magnetic resonance`), 2},
	{re(`\bct\b|computed tomography`), 2},
	{re(`\bpet\b|positron emission`), 3},
	{re(`spinal tap|lumbar puncture|spinal puncture`), 3},
	{re(`infusion`), 1},
	{re(`blood draw`), 0.5},
}

var burdenWeights = []weightedTerm{
	{re(`biopsy`), 2},
	{re(`\bmri\b|magnetic resonance`), 1.5},
	{re(`\bct\b|computed tomography`), 1.5},
	{re(`questionnaire`), 0.5},
	{re(`diary`), 1},
	{re(`fasting`), 1},
	{re(`overnight|admission|inpatient`), 2},
}

type staffRole struct {
	pattern    *regexp.Regexp
	role       string
	complexity float64
}

var staffRoles = []staffRole{
	{re(`principal investigator|\bPI\b`), "Principal Investigator", 1},
	{re(`sub-?investigator`), "Sub-Investigator", 1},
	{re(`research nurse|study nurse|\bnurses?\b`), "Research Nurse", 2},
	{re(`coordinator|\bCRC\b`), "Study Coordinator", 2},
	{re(`pharmacist|pharmacy`), "Pharmacist", 2},
	{re(`imaging specialist|radiologist|imaging`), "Imaging Specialist", 2},
	{re(`lab(?:oratory)? technician|lab tech|phlebotomist`), "Lab Technician", 1},
}

// AnalyzeProtocol derives the logistics and CRO features of a protocol text.
// Every score in the result lies in [0,10].
func AnalyzeProtocol(text string, keywords models.KeywordSet) models.ProtocolAnalysisResult {
	logistics := models.LogisticsAnalysis{
		SupplyRequirements:     supplyRequirements(text),
		StorageConditions:      storageConditions(text),
		DistributionChallenges: distributionChallenges(text, keywords),
		EstimatedDemand:        estimateDemand(text, keywords),
	}

	schedule := visitSchedule(text)
	staffing := staffingRequirements(text)
	cro := models.CROAnalysis{
		VisitSchedule:        schedule,
		ProcedureComplexity:  procedureComplexity(text, keywords),
		StaffingRequirements: staffing,
		PatientBurden:        patientBurden(text, schedule),
	}

	challenges := protocolChallenges(text, keywords, schedule)

	logisticsTermScore := 0.0
	if coldChainTerms.MatchString(text) {
		logisticsTermScore += 2
	}
	if controlledTerms.MatchString(text) {
		logisticsTermScore += 2
	}

	overall := (logisticsTermScore +
		float64(len(logistics.DistributionChallenges)) +
		cro.ProcedureComplexity/2 +
		staffing.Complexity +
		cro.PatientBurden/2 +
		float64(len(challenges))) / 4

	return models.ProtocolAnalysisResult{
		Logistics:          logistics,
		CRO:                cro,
		ProtocolChallenges: challenges,
		Complexity:         clampScore(overall),
	}
}

func supplyRequirements(text string) []string {
	checks := []struct {
		pattern *regexp.Regexp
		label   string
	}{
		{coldChainTerms, "Refrigerated storage with temperature monitoring"},
		{controlledTerms, "Controlled substance storage and accountability"},
		{reconstitutionRx, "Pharmacy preparation or reconstitution"},
		{lightTerms, "Protection from light"},
		{humidityTerms, "Humidity-controlled storage"},
	}

	var reqs []string
	for _, c := range checks {
		if c.pattern.MatchString(text) {
			reqs = append(reqs, c.label)
		}
	}
	if len(reqs) == 0 {
		return []string{SupplyStandard}
	}
	return reqs
}

func storageConditions(text string) string {
	switch {
	case coldChainTerms.MatchString(text):
		return StorageColdChain
	case frozenTerms.MatchString(text):
		return StorageFrozen
	case roomTempTerms.MatchString(text):
		return StorageRoomTemperature
	default:
		return StorageStandard
	}
}

func distributionChallenges(text string, keywords models.KeywordSet) []string {
	challenges := []string{}
	if tempShippingTerms.MatchString(text) {
		challenges = append(challenges, DistributionTemperatureControlled)
	}
	if shelfLifeTerms.MatchString(text) {
		challenges = append(challenges, DistributionShelfLife)
	}
	if len(keywords.Sites) > 3 {
		challenges = append(challenges, DistributionMultipleSites)
	}
	if internationalRx.MatchString(text) {
		challenges = append(challenges, DistributionInternational)
	}
	return challenges
}

func estimateDemand(text string, keywords models.KeywordSet) models.DemandEstimate {
	patients, found := firstInt(patientCountRx, text)
	if !found {
		patients, found = firstInt(sampleSizeRx, text)
	}

	demand := models.DemandEstimate{
		High:     patients > 100 || len(keywords.Sites) > 5,
		Estimate: UnknownDemand,
	}
	if !found {
		return demand
	}

	demand.Estimate = fmt.Sprintf("Approximately %d patients", patients)
	if m := durationRx.FindStringSubmatch(text); m != nil {
		demand.Estimate += fmt.Sprintf(" over %s %s", m[1], strings.ToLower(m[2]))
	}
	return demand
}

func visitSchedule(text string) models.VisitSchedule {
	distinct := make(map[string]struct{})
	for _, m := range visitMarkerRx.FindAllString(text, -1) {
		key := whitespaceRx.ReplaceAllString(strings.ToLower(m), " ")
		distinct[key] = struct{}{}
	}
	visitCount := len(distinct)

	durationWeeks := 0
	for _, m := range weekNumberRx.FindAllStringSubmatch(text, -1) {
		if n, err := strconv.Atoi(m[1]); err == nil && n > durationWeeks {
			durationWeeks = n
		}
	}
	for _, m := range monthNumberRx.FindAllStringSubmatch(text, -1) {
		if n, err := strconv.Atoi(m[1]); err == nil && n <= math.MaxInt/4 && n*4 > durationWeeks {
			durationWeeks = n * 4
		}
	}

	complexity := 0.0
	if visitCount > 0 {
		perVisit := 1.0
		if durationWeeks > 0 {
			perVisit = float64(durationWeeks) / float64(visitCount)
		}
		complexity = float64(visitCount) * perVisit / 4
	}

	return models.VisitSchedule{
		VisitCount:    visitCount,
		DurationWeeks: durationWeeks,
		Complexity:    clampScore(complexity),
	}
}

func procedureComplexity(text string, keywords models.KeywordSet) float64 {
	score := sumWeights(procedureWeights, text)
	score += 0.5 * float64(distinctFold(keywords.Procedures))
	return clampScore(score)
}

// distinctFold counts values that differ ignoring case.
func distinctFold(values []string) int {
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		seen[strings.ToLower(v)] = struct{}{}
	}
	return len(seen)
}

func staffingRequirements(text string) models.StaffingRequirements {
	staff := []string{}
	complexity := 0.0
	for _, r := range staffRoles {
		if r.pattern.MatchString(text) {
			staff = append(staff, r.role)
			complexity += r.complexity
		}
	}
	if len(staff) == 0 {
		return models.StaffingRequirements{
			Staff:      []string{"Study Coordinator", "Principal Investigator"},
			Complexity: 3,
		}
	}
	return models.StaffingRequirements{Staff: staff, Complexity: clampScore(complexity)}
}

func patientBurden(text string, schedule models.VisitSchedule) float64 {
	burden := 0.3 * float64(schedule.VisitCount)
	burden += sumWeights(burdenWeights, text)

	switch {
	case schedule.DurationWeeks > 52:
		burden += 2
	case schedule.DurationWeeks > 24:
		burden += 1.5
	case schedule.DurationWeeks > 12:
		burden += 1
	}
	return clampScore(burden)
}

func protocolChallenges(text string, keywords models.KeywordSet, schedule models.VisitSchedule) []string {
	challenges := []string{}
	if len(eligibilityRx.FindAllStringIndex(text, -1)) > 10 {
		challenges = append(challenges, ChallengeComplexEligibility)
	}
	if schedule.VisitCount > 10 {
		challenges = append(challenges, ChallengeHighVisitBurden)
	}
	if distinctFold(keywords.Procedures) > 5 {
		challenges = append(challenges, ChallengeMultipleProcedures)
	}
	if schedule.DurationWeeks > 52 {
		challenges = append(challenges, ChallengeExtendedDuration)
	}
	if invasiveRx.MatchString(text) {
		challenges = append(challenges, ChallengeInvasiveProcedures)
	}
	if pediatricRx.MatchString(text) {
		challenges = append(challenges, ChallengePediatricPopulation)
	}
	if elderlyRx.MatchString(text) {
		challenges = append(challenges, ChallengeElderlyPopulation)
	}
	if rareDiseaseRx.MatchString(text) {
		challenges = append(challenges, ChallengeRareDisease)
	}
	return challenges
}

func sumWeights(terms []weightedTerm, text string) float64 {
	total := 0.0
	for _, t := range terms {
		if t.pattern.MatchString(text) {
			total += t.weight
		}
	}
	return total
}

func firstInt(pattern *regexp.Regexp, text string) (int, bool) {
	m := pattern.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// clampScore forces v into [0,10]; NaN becomes 0.
func clampScore(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	return math.Min(v, maxScore)
}
