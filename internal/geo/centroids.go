package geo

// Bounding box for CABA plus Gran Buenos Aires.
const (
	boundsLatMin = -35.0
	boundsLatMax = -34.3
	boundsLngMin = -58.9
	boundsLngMax = -58.2
)

// InBuenosAires reports whether coordinates fall inside the CABA/GBA
// bounding box. Providers sometimes match a street name in another
// province; those results are discarded.
func InBuenosAires(lat, lng float64) bool {
	return lat >= boundsLatMin && lat <= boundsLatMax &&
		lng >= boundsLngMin && lng <= boundsLngMax
}

// centroidThreshold is roughly 100m in degrees. A result this close to a
// barrio centroid is a neighborhood-level match, not a street-level one.
const centroidThreshold = 0.001

// cabaCentroids holds the approximate centroid of each barrio, keyed by
// lowercased name.
var cabaCentroids = map[string][2]float64{
	"agronomía":           {-34.5983, -58.4897},
	"almagro":             {-34.6089, -58.4196},
	"balvanera":           {-34.6096, -58.4025},
	"barracas":            {-34.6416, -58.3820},
	"belgrano":            {-34.5600, -58.4560},
	"boedo":               {-34.6280, -58.4170},
	"caballito":           {-34.6189, -58.4370},
	"chacarita":           {-34.5880, -58.4540},
	"coghlan":             {-34.5620, -58.4720},
	"colegiales":          {-34.5740, -58.4490},
	"constitución":        {-34.6280, -58.3840},
	"flores":              {-34.6320, -58.4620},
	"floresta":            {-34.6320, -58.4830},
	"la boca":             {-34.6350, -58.3630},
	"la paternal":         {-34.5970, -58.4680},
	"liniers":             {-34.6420, -58.5200},
	"mataderos":           {-34.6540, -58.5090},
	"monte castro":        {-34.6180, -58.4930},
	"monserrat":           {-34.6140, -58.3780},
	"nueva pompeya":       {-34.6490, -58.4180},
	"núñez":               {-34.5460, -58.4580},
	"palermo":             {-34.5740, -58.4240},
	"parque avellaneda":   {-34.6440, -58.4800},
	"parque chacabuco":    {-34.6370, -58.4400},
	"parque chas":         {-34.5860, -58.4780},
	"parque patricios":    {-34.6380, -58.4020},
	"puerto madero":       {-34.6180, -58.3610},
	"recoleta":            {-34.5870, -58.3960},
	"retiro":              {-34.5920, -58.3750},
	"saavedra":            {-34.5540, -58.4880},
	"san cristóbal":       {-34.6230, -58.4010},
	"san nicolás":         {-34.6050, -58.3820},
	"san telmo":           {-34.6220, -58.3740},
	"vélez sarsfield":     {-34.6350, -58.4920},
	"versalles":           {-34.6300, -58.5170},
	"villa crespo":        {-34.5980, -58.4380},
	"villa del parque":    {-34.6050, -58.4880},
	"villa devoto":        {-34.6020, -58.5130},
	"villa general mitre": {-34.6100, -58.4710},
	"villa lugano":        {-34.6710, -58.4730},
	"villa luro":          {-34.6380, -58.5010},
	"villa ortúzar":       {-34.5840, -58.4680},
	"villa pueyrredón":    {-34.5780, -58.4960},
	"villa real":          {-34.6180, -58.5130},
	"villa riachuelo":     {-34.6780, -58.4630},
	"villa santa rita":    {-34.6170, -58.4810},
	"villa soldati":       {-34.6620, -58.4430},
	"villa urquiza":       {-34.5690, -58.4870},
}

// MatchCentroid returns the barrio whose centroid the coordinates sit on,
// within ~100m, or "" when the result looks street-level.
func MatchCentroid(lat, lng float64) string {
	for name, c := range cabaCentroids {
		if abs(lat-c[0]) < centroidThreshold && abs(lng-c[1]) < centroidThreshold {
			return name
		}
	}
	return ""
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
