// Package quran provides static Quran metadata: the 114 surahs, their
// verse counts, and validation of surah/verse coordinates.
package quran

import (
	"errors"
	"fmt"
)

// TotalSurahs is the number of surahs in the Quran.
const TotalSurahs = 114

// TotalVerses is the number of verses across all surahs (Hafs numbering).
const TotalVerses = 6236

var (
	// ErrInvalidSurah indicates a surah number outside 1..114.
	ErrInvalidSurah = errors.New("invalid surah number")

	// ErrInvalidVerse indicates a verse number outside the surah's range.
	ErrInvalidVerse = errors.New("invalid verse number")
)

// Surah describes one chapter of the Quran.
type Surah struct {
	Number      int    `json:"number"`
	Name        string `json:"name"`        // Transliterated name
	EnglishName string `json:"englishName"` // English meaning
	Verses      int    `json:"verses"`
	Meccan      bool   `json:"meccan"` // false = Medinan
}

// surahs lists all 114 surahs in order. Verse counts follow the Hafs
// numbering used by the everyayah recitation archive.
var surahs = []Surah{
	{1, "Al-Fatiha", "The Opening", 7, true},
	{2, "Al-Baqarah", "The Cow", 286, false},
	{3, "Aal-E-Imran", "The Family of Imran", 200, false},
	{4, "An-Nisa", "The Women", 176, false},
	{5, "Al-Ma'idah", "The Table Spread", 120, false},
	{6, "Al-An'am", "The Cattle", 165, true},
	{7, "Al-A'raf", "The Heights", 206, true},
	{8, "Al-Anfal", "The Spoils of War", 75, false},
	{9, "At-Tawbah", "The Repentance", 129, false},
	{10, "Yunus", "Jonah", 109, true},
	{11, "Hud", "Hud", 123, true},
	{12, "Yusuf", "Joseph", 111, true},
	{13, "Ar-Ra'd", "The Thunder", 43, false},
	{14, "Ibrahim", "Abraham", 52, true},
	{15, "Al-Hijr", "The Rocky Tract", 99, true},
	{16, "An-Nahl", "The Bee", 128, true},
	{17, "Al-Isra", "The Night Journey", 111, true},
	{18, "Al-Kahf", "The Cave", 110, true},
	{19, "Maryam", "Mary", 98, true},
	{20, "Ta-Ha", "Ta-Ha", 135, true},
	{21, "Al-Anbiya", "The Prophets", 112, true},
	{22, "Al-Hajj", "The Pilgrimage", 78, false},
	{23, "Al-Mu'minun", "The Believers", 118, true},
	{24, "An-Nur", "The Light", 64, false},
	{25, "Al-Furqan", "The Criterion", 77, true},
	{26, "Ash-Shu'ara", "The Poets", 227, true},
	{27, "An-Naml", "The Ant", 93, true},
	{28, "Al-Qasas", "The Stories", 88, true},
	{29, "Al-Ankabut", "The Spider", 69, true},
	{30, "Ar-Rum", "The Romans", 60, true},
	{31, "Luqman", "Luqman", 34, true},
	{32, "As-Sajdah", "The Prostration", 30, true},
	{33, "Al-Ahzab", "The Combined Forces", 73, false},
	{34, "Saba", "Sheba", 54, true},
	{35, "Fatir", "The Originator", 45, true},
	{36, "Ya-Sin", "Ya-Sin", 83, true},
	{37, "As-Saffat", "Those Ranged in Ranks", 182, true},
	{38, "Sad", "Sad", 88, true},
	{39, "Az-Zumar", "The Groups", 75, true},
	{40, "Ghafir", "The Forgiver", 85, true},
	{41, "Fussilat", "Explained in Detail", 54, true},
	{42, "Ash-Shura", "The Consultation", 53, true},
	{43, "Az-Zukhruf", "The Gold Adornments", 89, true},
	{44, "Ad-Dukhan", "The Smoke", 59, true},
	{45, "Al-Jathiyah", "The Kneeling", 37, true},
	{46, "Al-Ahqaf", "The Wind-Curved Sandhills", 35, true},
	{47, "Muhammad", "Muhammad", 38, false},
	{48, "Al-Fath", "The Victory", 29, false},
	{49, "Al-Hujurat", "The Rooms", 18, false},
	{50, "Qaf", "Qaf", 45, true},
	{51, "Adh-Dhariyat", "The Winnowing Winds", 60, true},
	{52, "At-Tur", "The Mount", 49, true},
	{53, "An-Najm", "The Star", 62, true},
	{54, "Al-Qamar", "The Moon", 55, true},
	{55, "Ar-Rahman", "The Beneficent", 78, false},
	{56, "Al-Waqi'ah", "The Inevitable", 96, true},
	{57, "Al-Hadid", "The Iron", 29, false},
	{58, "Al-Mujadila", "The Pleading Woman", 22, false},
	{59, "Al-Hashr", "The Exile", 24, false},
	{60, "Al-Mumtahanah", "She That is to be Examined", 13, false},
	{61, "As-Saff", "The Ranks", 14, false},
	{62, "Al-Jumu'ah", "The Congregation", 11, false},
	{63, "Al-Munafiqun", "The Hypocrites", 11, false},
	{64, "At-Taghabun", "The Mutual Disillusion", 18, false},
	{65, "At-Talaq", "The Divorce", 12, false},
	{66, "At-Tahrim", "The Prohibition", 12, false},
	{67, "Al-Mulk", "The Sovereignty", 30, true},
	{68, "Al-Qalam", "The Pen", 52, true},
	{69, "Al-Haqqah", "The Reality", 52, true},
	{70, "Al-Ma'arij", "The Ascending Stairways", 44, true},
	{71, "Nuh", "Noah", 28, true},
	{72, "Al-Jinn", "The Jinn", 28, true},
	{73, "Al-Muzzammil", "The Enshrouded One", 20, true},
	{74, "Al-Muddathir", "The Cloaked One", 56, true},
	{75, "Al-Qiyamah", "The Resurrection", 40, true},
	{76, "Al-Insan", "The Man", 31, false},
	{77, "Al-Mursalat", "The Emissaries", 50, true},
	{78, "An-Naba", "The Tidings", 40, true},
	{79, "An-Nazi'at", "Those Who Drag Forth", 46, true},
	{80, "Abasa", "He Frowned", 42, true},
	{81, "At-Takwir", "The Overthrowing", 29, true},
	{82, "Al-Infitar", "The Cleaving", 19, true},
	{83, "Al-Mutaffifin", "The Defrauding", 36, true},
	{84, "Al-Inshiqaq", "The Sundering", 25, true},
	{85, "Al-Buruj", "The Mansions of the Stars", 22, true},
	{86, "At-Tariq", "The Nightcomer", 17, true},
	{87, "Al-A'la", "The Most High", 19, true},
	{88, "Al-Ghashiyah", "The Overwhelming", 26, true},
	{89, "Al-Fajr", "The Dawn", 30, true},
	{90, "Al-Balad", "The City", 20, true},
	{91, "Ash-Shams", "The Sun", 15, true},
	{92, "Al-Lail", "The Night", 21, true},
	{93, "Ad-Duha", "The Morning Hours", 11, true},
	{94, "Ash-Sharh", "The Relief", 8, true},
	{95, "At-Tin", "The Fig", 8, true},
	{96, "Al-Alaq", "The Clot", 19, true},
	{97, "Al-Qadr", "The Power", 5, true},
	{98, "Al-Bayyinah", "The Clear Proof", 8, false},
	{99, "Az-Zalzalah", "The Earthquake", 8, false},
	{100, "Al-Adiyat", "The Courser", 11, true},
	{101, "Al-Qari'ah", "The Calamity", 11, true},
	{102, "At-Takathur", "The Rivalry in Increase", 8, true},
	{103, "Al-Asr", "The Declining Day", 3, true},
	{104, "Al-Humazah", "The Traducer", 9, true},
	{105, "Al-Fil", "The Elephant", 5, true},
	{106, "Quraish", "Quraish", 4, true},
	{107, "Al-Ma'un", "The Small Kindnesses", 7, true},
	{108, "Al-Kawthar", "The Abundance", 3, true},
	{109, "Al-Kafirun", "The Disbelievers", 6, true},
	{110, "An-Nasr", "The Divine Support", 3, false},
	{111, "Al-Masad", "The Palm Fiber", 5, true},
	{112, "Al-Ikhlas", "The Sincerity", 4, true},
	{113, "Al-Falaq", "The Daybreak", 5, true},
	{114, "An-Nas", "Mankind", 6, true},
}

// Get returns the surah with the given number (1-114).
func Get(number int) (Surah, error) {
	if number < 1 || number > TotalSurahs {
		return Surah{}, fmt.Errorf("%w: %d", ErrInvalidSurah, number)
	}
	return surahs[number-1], nil
}

// All returns all 114 surahs in order. The returned slice is a copy.
func All() []Surah {
	out := make([]Surah, len(surahs))
	copy(out, surahs)
	return out
}

// VerseCount returns the number of verses in the given surah.
func VerseCount(surah int) (int, error) {
	s, err := Get(surah)
	if err != nil {
		return 0, err
	}
	return s.Verses, nil
}

// Validate checks that (surah, verse) addresses an existing verse.
func Validate(surah, verse int) error {
	s, err := Get(surah)
	if err != nil {
		return err
	}
	if verse < 1 || verse > s.Verses {
		return fmt.Errorf("%w: %d:%d (surah has %d verses)", ErrInvalidVerse, surah, verse, s.Verses)
	}
	return nil
}
