package entity

// typeWeights scores how strongly an overlap in each entity type suggests two
// texts are about the same thing. Dates and numbers are too generic to count.
var typeWeights = map[string]float64{
	TypePersons:       0.25,
	TypeOrganizations: 0.25,
	TypeProducts:      0.25,
	TypeLocations:     0.15,
	TypeKeywords:      0.10,
	TypeEmails:        0.05,
	TypeURLs:          0.05,
	TypePhones:        0.05,
	TypeDates:         0.0,
	TypeNumbers:       0.0,
}

// Overlap holds the per-type intersection and Jaccard similarity for a pair
// of entity mappings.
type Overlap struct {
	Common     Set
	Similarity float64
}

// TypeOverlap computes, for every entity type, the common entities and the
// Jaccard similarity between the two mappings. A type where either side is
// empty scores 0.
func TypeOverlap(a, b Entities) map[string]Overlap {
	overlap := make(map[string]Overlap, len(a))

	for entityType, setA := range a {
		setB := b[entityType]
		if len(setA) == 0 || len(setB) == 0 {
			overlap[entityType] = Overlap{Common: Set{}}
			continue
		}

		common := intersect(setA, setB)
		unionSize := len(setA) + len(setB) - len(common)

		similarity := 0.0
		if unionSize > 0 {
			similarity = float64(len(common)) / float64(unionSize)
		}
		overlap[entityType] = Overlap{Common: common, Similarity: similarity}
	}

	return overlap
}

// Similarity computes the overall weighted entity similarity between two
// mappings, in [0,1]. Per-type Jaccard scores are combined with typeWeights
// and normalized by the weight of the types that could actually contribute,
// i.e. types where both sides extracted something. Two texts sharing only
// dates and numbers score 0.
func Similarity(a, b Entities) float64 {
	overlap := TypeOverlap(a, b)

	var weightedScore, totalWeight float64
	for entityType, o := range overlap {
		weight := typeWeights[entityType]
		if weight == 0 {
			continue
		}
		if len(a[entityType]) == 0 || len(b[entityType]) == 0 {
			continue
		}
		weightedScore += o.Similarity * weight
		totalWeight += weight
	}

	if totalWeight == 0 {
		return 0.0
	}
	return weightedScore / totalWeight
}

// SharedEntities returns the raw per-type intersection of two mappings, used
// to build human-readable relationship reasons.
func SharedEntities(a, b Entities) Entities {
	shared := make(Entities, len(a))
	for entityType, setA := range a {
		shared[entityType] = intersect(setA, b[entityType])
	}
	return shared
}

func intersect(a, b Set) Set {
	if len(b) < len(a) {
		a, b = b, a
	}
	common := Set{}
	for member := range a {
		if b.Contains(member) {
			common.Add(member)
		}
	}
	return common
}
