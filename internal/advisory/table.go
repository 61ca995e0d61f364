package advisory

var defaultRecord = Record{
	Description: "No specific guidance is available for this result. General care for fungal leaf problems applies.",
	Organic:     "Apply neem oil spray.",
	Chemical:    "Use broad spectrum fungicide.",
	ProductName: "Generic Fungicide",
	ProductLink: "https://www.amazon.in/s?k=plant+fungicide",
}

var table = map[string]Record{
	"Tomato___Early_blight": {
		Description: "Fungal disease (Alternaria solani) causing brown concentric-ringed spots on older leaves, spreading upward.",
		Organic:     "Apply neem oil spray weekly and remove infected leaves.",
		Chemical:    "Spray Mancozeb or Chlorothalonil fungicide.",
		ProductName: "Dhanuka M-45 Mancozeb",
		ProductLink: "https://www.amazon.in/s?k=mancozeb+fungicide",
	},
	"Tomato___Late_blight": {
		Description: "Water mould (Phytophthora infestans) producing dark, water-soaked lesions that spread fast in cool, wet weather.",
		Organic:     "Use compost tea spray and baking soda solution.",
		Chemical:    "Apply Metalaxyl based fungicide.",
		ProductName: "Ridomil Gold",
		ProductLink: "https://www.amazon.in/s?k=ridomil+fungicide",
	},
	"Potato___Early_blight": {
		Description: "Fungal disease (Alternaria solani) causing dark target-like spots on lower potato leaves.",
		Organic:     "Apply neem oil and keep foliage dry.",
		Chemical:    "Use Chlorothalonil spray.",
		ProductName: "Kavach Fungicide",
		ProductLink: "https://www.amazon.in/s?k=kavach+fungicide",
	},
	"Potato___Late_blight": {
		Description: "Water mould (Phytophthora infestans) causing pale green lesions that turn black and can destroy foliage and tubers.",
		Organic:     "Use garlic extract spray.",
		Chemical:    "Apply Metalaxyl fungicide.",
		ProductName: "Ridomil Gold",
		ProductLink: "https://www.amazon.in/s?k=ridomil+fungicide",
	},
	"Apple___Apple_scab": {
		Description: "Fungal disease (Venturia inaequalis) forming olive-green to black velvety spots on leaves and fruit.",
		Organic:     "Apply neem oil and prune affected leaves.",
		Chemical:    "Use Captan fungicide spray.",
		ProductName: "Captan Fungicide",
		ProductLink: "https://www.amazon.in/s?k=captan+fungicide",
	},
	"Tomato___healthy": {
		Description: "The leaf shows no sign of disease.",
		Organic:     "No treatment needed. Maintain proper watering.",
		Chemical:    "No chemical needed.",
		ProductName: "Growth Booster",
		ProductLink: "https://www.amazon.in/s?k=plant+growth+booster",
	},
}
