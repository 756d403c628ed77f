package qbank

// DefaultVignettes ships with the binary.
var DefaultVignettes = []Vignette{
	{
		ID:       "SURG-101",
		Category: "Surgery",
		Title:    "Obstructive Shock",
		Prompt:   "24M after MVA with RR 34, BP 70/40, HR 140, distended neck veins. Absent breath sounds on the left, trachea shifted right. Immediate priority?",
		Options: []string{
			"Chest X-ray",
			"Needle decompression (5th ICS AAL)",
			"Intubation",
			"FAST scan",
			"Laparotomy",
		},
		AnswerIndex:         1,
		Probe:               "Shock + JVD + absent breath sounds. Is it safe to wait for imaging?",
		Logic:               "Recognize tension pneumothorax: a one-way valve creates obstructive shock. ATLS 11 calls for immediate decompression at the 5th ICS AAL.",
		DistractorAnalysis:  []string{"Fatal delay", "Correct priority", "Worsens tension", "For tamponade", "Not primary"},
		ConceptCluster:      "Tension pneumothorax converts to cardiovascular collapse.",
		RevisionPearl:       "Tension pneumo: JVD + shift + shock. Tx: 5th ICS AAL needle.",
		ManagementAlgorithm: "Identify -> Decompress -> Tube thoracostomy.",
		Sources:             []Source{{Title: "ATLS 11", Type: "Global"}},
	},
	{
		ID:       "MED-202",
		Category: "Internal Medicine",
		Title:    "Acute Coronary Syndrome",
		Prompt:   "62M with 2 hours of crushing substernal chest pain, diaphoresis, and nausea. ECG shows 3mm ST elevation in V1-V4. BP 100/60, HR 110. Next best step?",
		Options: []string{
			"Aspirin and Heparin",
			"Primary PCI",
			"Thrombolysis",
			"CT Angiography",
			"Echocardiogram",
		},
		AnswerIndex:         1,
		Probe:               "ST elevation in V1-V4 indicates anterior wall MI. What is the gold standard for reperfusion?",
		Logic:               "STEMI confirmed; reperfusion is time-critical. PCI is superior to thrombolysis if available within 90-120 minutes.",
		DistractorAnalysis:  []string{"Adjunctive only", "Gold standard", "Second line", "Contraindicated", "Delays care"},
		ConceptCluster:      "Time is muscle. STEMI requires immediate mechanical or chemical reperfusion.",
		RevisionPearl:       "STEMI: ST elevation >1mm in 2 contiguous leads. Tx: PCI <90m.",
		ManagementAlgorithm: "ECG -> Aspirin -> PCI/Fibrinolysis.",
		Sources:             []Source{{Title: "ACC/AHA Guidelines", Type: "Global"}},
	},
}
