package catalog

// Region groups display zones and the town lists used for heuristic
// classification when a winery carries no usable region tag.
type Region struct {
	ID    string
	Label string
	Zones []Zone
	// Towns maps zone id to lowercase town names matched as substrings of
	// the winery location.
	Towns map[string][]string
}

type Zone struct {
	ID    string
	Label string
}

var Regions = []Region{
	{
		ID:    "vda",
		Label: "Valle d'Aosta",
		Zones: []Zone{
			{ID: "bassa", Label: "Bassa Valle"},
			{ID: "nus-quart", Label: "Nus-Quart"},
			{ID: "la-plaine", Label: "La Plaine"},
			{ID: "plaine-to-valdigne", Label: "Media Valle"},
			{ID: "valdigne", Label: "Valdigne"},
		},
		Towns: map[string][]string{
			"bassa":              {"ponte-saint-martin", "donnas", "perloz", "bard", "hône", "arnad", "issogne", "champoluc", "challand", "montjovet", "champdepraz", "verrès", "chambave", "pontey", "fenis", "saint-vincent", "chatillon"},
			"nus-quart":          {"nus", "quart"},
			"la-plaine":          {"saint-christophe", "pollein", "charvensod", "gignod", "aosta"},
			"plaine-to-valdigne": {"sarre", "saint-pierre", "jovençan", "villeneuve", "aymavilles", "introd", "arvier", "avise", "saint-nicolas", "gressan"},
			"valdigne":           {"la salle", "morgex", "pré-saint-didier", "courmayeur"},
		},
	},
	{
		ID:    "piemonte",
		Label: "Piemonte",
		Zones: []Zone{
			{ID: "canavese", Label: "Canavese"},
			{ID: "alto-piemonte", Label: "Alto Piemonte"},
			{ID: "roero", Label: "Roero"},
			{ID: "langhe", Label: "Langhe"},
			{ID: "monferrato", Label: "Monferrato"},
			{ID: "tortonese", Label: "Colli Tortonesi"},
		},
		Towns: map[string][]string{
			"alto-piemonte": {"gattinara", "boca", "lessona", "ghemme", "fara", "biella", "brusnengo"},
			"canavese":      {"caluso", "canavese", "carema", "ivrea", "san giorgio"},
			"langhe":        {"barolo", "barbaresco", "la morra", "serralunga", "monforte", "neive", "alba", "dogliani", "verduno", "cherasco", "castiglione falletto", "fontanafredda"},
			"roero":         {"canale", "guarene", "roero"},
			"monferrato":    {"asti", "nizza", "acqui", "calamandrana", "vignale", "castagnole"},
			"tortonese":     {"tortona", "colli tortonesi", "castellania"},
		},
	},
	{
		ID:    "liguria",
		Label: "Liguria",
		Zones: []Zone{
			{ID: "cinque-terre", Label: "Cinque Terre"},
			{ID: "riviera-ponente", Label: "Riviera di Ponente"},
			{ID: "riviera-levante", Label: "Riviera di Levante"},
			{ID: "colli-luni", Label: "Colli di Luni"},
		},
		Towns: map[string][]string{
			"cinque-terre":    {"riomaggiore", "manarola", "corniglia", "vernazza", "monterosso"},
			"riviera-ponente": {"albenga", "imperia", "sanremo", "dolceacqua"},
			"riviera-levante": {"portofino", "sestri levante", "chiavari"},
			"colli-luni":      {"sarzana", "luni", "castelnuovo magra"},
		},
	},
	{
		ID:    "sardegna",
		Label: "Sardegna",
		Zones: []Zone{
			{ID: "gallura", Label: "Gallura"},
			{ID: "barbagia", Label: "Barbagia"},
			{ID: "sulcis", Label: "Sulcis"},
			{ID: "oristano", Label: "Oristano"},
			{ID: "cagliari", Label: "Cagliari"},
		},
		Towns: map[string][]string{
			"gallura":  {"tempio pausania", "arzachena", "olbia", "berchidda"},
			"barbagia": {"mamoiada", "orgosolo", "nuoro", "oliena"},
			"sulcis":   {"santadi", "carbonia", "iglesias"},
			"oristano": {"oristano", "cabras"},
			"cagliari": {"cagliari", "serdiana", "dolianova"},
		},
	},
	{
		ID:    "toscana",
		Label: "Toscana",
		Zones: []Zone{
			{ID: "chianti-classico", Label: "Chianti Classico"},
			{ID: "montalcino", Label: "Montalcino"},
			{ID: "montepulciano", Label: "Montepulciano"},
			{ID: "bolgheri", Label: "Bolgheri"},
			{ID: "maremma", Label: "Maremma"},
		},
		Towns: map[string][]string{
			"chianti-classico": {"greve", "castellina", "radda", "gaiole", "panzano"},
			"montalcino":       {"montalcino", "sant'antimo"},
			"montepulciano":    {"montepulciano"},
			"bolgheri":         {"bolgheri", "castagneto carducci"},
			"maremma":          {"scansano", "pitigliano", "morellino"},
		},
	},
	{
		ID:    "veneto",
		Label: "Veneto",
		Zones: []Zone{
			{ID: "valpolicella", Label: "Valpolicella"},
			{ID: "soave", Label: "Soave"},
			{ID: "prosecco", Label: "Prosecco DOCG"},
			{ID: "custoza", Label: "Custoza"},
			{ID: "bardolino", Label: "Bardolino"},
		},
		Towns: map[string][]string{
			"valpolicella": {"negrar", "fumane", "marano", "san pietro in cariano", "sant'ambrogio"},
			"soave":        {"soave", "monteforte d'alpone"},
			"prosecco":     {"valdobbiadene", "conegliano", "asolo"},
			"custoza":      {"sommacampagna", "villafranca", "valeggio"},
			"bardolino":    {"bardolino", "lazise", "affi"},
		},
	},
	{
		ID:    "lombardia",
		Label: "Lombardia",
		Zones: []Zone{
			{ID: "franciacorta", Label: "Franciacorta"},
			{ID: "valtellina", Label: "Valtellina"},
			{ID: "oltrepo", Label: "Oltrepò Pavese"},
			{ID: "lugana", Label: "Lugana"},
		},
		Towns: map[string][]string{
			"franciacorta": {"erbusco", "corte franca", "adro", "provaglio", "passirano"},
			"valtellina":   {"sondrio", "tirano", "teglio", "chiuro", "ponte in valtellina"},
			"oltrepo":      {"casteggio", "santa maria della versa", "canneto pavese"},
			"lugana":       {"sirmione", "desenzano", "peschiera"},
		},
	},
	{
		ID:    "francia",
		Label: "Francia",
		Zones: []Zone{
			{ID: "borgogna", Label: "Borgogna"},
			{ID: "bordeaux", Label: "Bordeaux"},
			{ID: "champagne", Label: "Champagne"},
			{ID: "rodano", Label: "Valle del Rodano"},
			{ID: "loira", Label: "Valle della Loira"},
		},
		Towns: map[string][]string{
			"borgogna":  {"beaune", "nuits-saint-georges", "gevrey-chambertin", "meursault", "puligny-montrachet"},
			"bordeaux":  {"pauillac", "margaux", "saint-émilion", "pomerol", "sauternes"},
			"champagne": {"reims", "épernay", "aÿ", "bouzy"},
			"rodano":    {"hermitage", "côte-rôtie", "châteauneuf-du-pape", "gigondas"},
			"loira":     {"sancerre", "vouvray", "muscadet", "chinon"},
		},
	},
}
