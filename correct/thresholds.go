package correct

//Thresholds maps base qualities to the occurrence count a kmer needs before
//it counts as solid. High quality bases get the benefit of the doubt with a
//lower support requirement.
type Thresholds struct {
	LowSupport    int
	HighSupport   int
	QualityCutoff int
}

func NewThresholds() Thresholds {
	return Thresholds{LowSupport: 3, HighSupport: 2, QualityCutoff: 20}
}

//NewThresholdsWithBase shifts both support tiers up to a caller-chosen
//minimum
func NewThresholdsWithBase(baseSupport int) Thresholds {
	t := NewThresholds()
	if baseSupport > t.HighSupport {
		t.LowSupport += baseSupport - t.HighSupport
		t.HighSupport = baseSupport
	}
	return t
}

//RequiredSupport gives the occurrence count needed by a kmer whose minimum
//base quality is phred
func (t Thresholds) RequiredSupport(phred int) int {
	if phred >= t.QualityCutoff {
		return t.HighSupport
	}
	return t.LowSupport
}
