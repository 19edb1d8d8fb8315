package reference

func span(min, max float64) *Range {
	return &Range{Min: min, Max: max}
}

func num(v float64) *float64 {
	return &v
}

// DefaultTable is the built-in adult clinical table with pediatric and senior
// overrides for the CBC and kidney markers.
func DefaultTable() Table {
	return Table{Parameters: map[string]Definition{
		// Complete blood count
		"Hemoglobin": {
			Unit:        "g/dL",
			Description: "Oxygen-carrying protein in red blood cells",
			Aliases:     []string{"hb", "hgb", "haemoglobin", "hemoglobin hb"},
			General:     span(12.0, 16.0),
			Male:        span(13.5, 17.5),
			Female:      span(12.0, 15.5),
			AgeGroups: map[AgeGroup]Range{
				AgeNeonate:  {Min: 14.0, Max: 24.0},
				AgeInfant:   {Min: 9.5, Max: 13.0},
				AgeChild:    {Min: 11.0, Max: 14.0},
				AgeTeenager: {Min: 12.0, Max: 16.0},
				AgeSenior:   {Min: 11.5, Max: 16.5},
			},
			Critical: &Critical{Low: num(7.0), High: num(20.0)},
			Scale:    []ScaleRule{{Above: num(30), Factor: 0.1}},
			Notes: map[string]string{
				"low":           "May indicate anemia, blood loss, or nutritional deficiency",
				"high":          "May indicate dehydration, lung disease, or polycythemia",
				"critical_low":  "Severe anemia requiring immediate medical attention",
				"critical_high": "Severe polycythemia requiring immediate evaluation",
			},
		},
		"RBC": {
			Unit:        "10^6/uL",
			Description: "Red blood cell count",
			Aliases:     []string{"red blood cells", "red blood cell", "red blood cell count", "rbc count", "erythrocytes", "total rbc count"},
			General:     span(4.0, 5.5),
			Male:        span(4.5, 5.5),
			Female:      span(4.0, 5.0),
			AgeGroups: map[AgeGroup]Range{
				AgeChild:    {Min: 4.0, Max: 5.0},
				AgeTeenager: {Min: 4.2, Max: 5.4},
				AgeSenior:   {Min: 3.8, Max: 5.2},
			},
			Critical: &Critical{Low: num(2.5), High: num(7.5)},
			Scale:    []ScaleRule{{Above: num(1000), Factor: 0.000001}},
		},
		"HCT": {
			Unit:        "%",
			Description: "Hematocrit, the packed red cell volume",
			Aliases:     []string{"hematocrit", "haematocrit", "pcv", "packed cell volume"},
			General:     span(36.0, 50.0),
			Male:        span(40.0, 54.0),
			Female:      span(36.0, 48.0),
			AgeGroups: map[AgeGroup]Range{
				AgeChild:    {Min: 33.0, Max: 43.0},
				AgeTeenager: {Min: 36.0, Max: 48.0},
			},
			Critical: &Critical{Low: num(20.0), High: num(60.0)},
			Scale:    []ScaleRule{{Below: num(1), Factor: 100}},
		},
		"WBC": {
			Unit:        "10^3/uL",
			Description: "White blood cells responsible for immunity",
			Aliases:     []string{"white blood cells", "white blood cell count", "total leukocyte count", "tlc", "leukocytes", "total wbc count", "wbc count"},
			General:     span(4.0, 11.0),
			AgeGroups: map[AgeGroup]Range{
				AgeNeonate:  {Min: 9.0, Max: 30.0},
				AgeInfant:   {Min: 6.0, Max: 17.5},
				AgeChild:    {Min: 5.0, Max: 13.0},
				AgeTeenager: {Min: 4.5, Max: 11.0},
				AgeSenior:   {Min: 3.5, Max: 10.5},
			},
			Critical: &Critical{Low: num(2.0), High: num(30.0)},
			Scale:    []ScaleRule{{Above: num(1000), Factor: 0.001}},
			Notes: map[string]string{
				"low":  "May indicate bone marrow suppression, viral infection, or autoimmune disease",
				"high": "May indicate infection, inflammation, or a blood disorder",
			},
		},
		"Platelets": {
			Unit:        "10^3/uL",
			Description: "Blood cells responsible for clotting",
			Aliases:     []string{"platelet", "platelet count", "plt", "thrombocytes"},
			General:     span(150, 450),
			Critical:    &Critical{Low: num(20), High: num(1000)},
			Scale:       []ScaleRule{{Above: num(10000), Factor: 0.001}},
			Notes: map[string]string{
				"low":          "Increased bleeding risk",
				"critical_low": "Severe bleeding risk requiring immediate attention",
				"high":         "Elevated platelet count may increase clotting risk",
			},
		},
		"MCV": {
			Unit:        "fL",
			Description: "Average size of red blood cells",
			Aliases:     []string{"mean corpuscular volume"},
			General:     span(80, 100),
			Critical:    &Critical{Low: num(60), High: num(120)},
		},
		"MCH": {
			Unit:        "pg",
			Description: "Average hemoglobin content per red cell",
			Aliases:     []string{"mean corpuscular hemoglobin"},
			General:     span(27, 33),
		},
		"MCHC": {
			Unit:        "g/dL",
			Description: "Hemoglobin concentration in red cells",
			Aliases:     []string{"mean corpuscular hemoglobin concentration"},
			General:     span(32, 36),
		},
		"RDW": {
			Unit:        "%",
			Description: "Variation in red cell size",
			Aliases:     []string{"rdw-cv", "rdw cv", "red cell distribution width"},
			General:     span(11.5, 14.5),
		},

		// Kidney function
		"Creatinine": {
			Unit:        "mg/dL",
			Description: "Waste product filtered by the kidneys",
			Aliases:     []string{"serum creatinine", "creat", "s creatinine"},
			General:     span(0.6, 1.3),
			Male:        span(0.7, 1.3),
			Female:      span(0.6, 1.1),
			AgeGroups: map[AgeGroup]Range{
				AgeNeonate:  {Min: 0.3, Max: 1.0},
				AgeInfant:   {Min: 0.2, Max: 0.4},
				AgeChild:    {Min: 0.3, Max: 0.7},
				AgeTeenager: {Min: 0.5, Max: 1.0},
				AgeSenior:   {Min: 0.7, Max: 1.4},
			},
			Critical: &Critical{High: num(5.0)},
			Notes: map[string]string{
				"high":          "May indicate kidney dysfunction or dehydration",
				"critical_high": "Severe kidney impairment requiring immediate attention",
			},
		},
		"Urea": {
			Unit:        "mg/dL",
			Description: "Protein waste product cleared by the kidneys",
			Aliases:     []string{"blood urea", "serum urea"},
			General:     span(15, 43),
			AgeGroups: map[AgeGroup]Range{
				AgeChild: {Min: 10, Max: 38},
			},
			Critical: &Critical{High: num(200)},
		},
		"Uric Acid": {
			Unit:        "mg/dL",
			Description: "Purine breakdown product",
			Aliases:     []string{"serum uric acid", "urate"},
			General:     span(2.4, 7.2),
			Male:        span(3.4, 7.2),
			Female:      span(2.4, 6.0),
			Critical:    &Critical{High: num(13)},
		},

		// Metabolic
		"Glucose": {
			Unit:        "mg/dL",
			Description: "Fasting blood sugar",
			Aliases:     []string{"fasting blood sugar", "fbs", "blood sugar", "fasting glucose", "blood glucose", "glucose fasting"},
			General:     span(70, 100),
			Critical:    &Critical{Low: num(40), High: num(400)},
			Notes: map[string]string{
				"low":           "May indicate hypoglycemia",
				"high":          "May indicate prediabetes or diabetes",
				"critical_low":  "Severe hypoglycemia with risk of unconsciousness",
				"critical_high": "Severe hyperglycemia with risk of diabetic complications",
			},
		},
		"HbA1c": {
			Unit:        "%",
			Description: "Average blood sugar over three months",
			Aliases:     []string{"glycated hemoglobin", "glycohemoglobin", "a1c", "hba1c", "glycosylated hemoglobin"},
			General:     span(4.0, 5.6),
			Critical:    &Critical{High: num(14)},
		},
		"Total Cholesterol": {
			Unit:    "mg/dL",
			Aliases: []string{"cholesterol", "total chol", "serum cholesterol", "cholesterol total"},
			General: span(125, 200),
		},
		"HDL": {
			Unit:    "mg/dL",
			Aliases: []string{"hdl cholesterol", "hdl-c", "good cholesterol", "cholesterol hdl"},
			General: span(40, 100),
			Male:    span(40, 100),
			Female:  span(50, 100),
			Notes: map[string]string{
				"low": "Low protective cholesterol increases cardiovascular risk",
			},
		},
		"LDL": {
			Unit:    "mg/dL",
			Aliases: []string{"ldl cholesterol", "ldl-c", "bad cholesterol", "cholesterol ldl"},
			General: span(50, 130),
			Notes: map[string]string{
				"high": "Increased risk of cardiovascular disease",
			},
		},
		"Triglycerides": {
			Unit:     "mg/dL",
			Aliases:  []string{"triglyceride", "tg", "trigs", "serum triglycerides"},
			General:  span(50, 150),
			Critical: &Critical{High: num(500)},
			Notes: map[string]string{
				"high":          "Increased cardiovascular risk and risk of pancreatitis",
				"critical_high": "Very high risk of pancreatitis",
			},
		},

		// Thyroid
		"TSH": {
			Unit:     "mIU/L",
			Aliases:  []string{"thyroid stimulating hormone", "s tsh"},
			General:  span(0.4, 4.5),
			Critical: &Critical{Low: num(0.1), High: num(10)},
		},

		// Liver
		"ALT": {
			Unit:    "U/L",
			Aliases: []string{"sgpt", "alanine aminotransferase", "alt sgpt"},
			General: span(7, 56),
		},
		"AST": {
			Unit:    "U/L",
			Aliases: []string{"sgot", "aspartate aminotransferase", "ast sgot"},
			General: span(10, 40),
		},
		"Bilirubin": {
			Unit:    "mg/dL",
			Aliases: []string{"total bilirubin", "bilirubin total", "serum bilirubin"},
			General: span(0.1, 1.2),
		},

		// Electrolytes
		"Sodium": {
			Unit:     "mEq/L",
			Aliases:  []string{"na", "serum sodium"},
			General:  span(136, 145),
			Critical: &Critical{Low: num(120), High: num(160)},
		},
		"Potassium": {
			Unit:     "mEq/L",
			Aliases:  []string{"k", "serum potassium"},
			General:  span(3.5, 5.0),
			Critical: &Critical{Low: num(2.5), High: num(6.5)},
		},
	}}
}
