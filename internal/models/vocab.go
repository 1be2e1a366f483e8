package models

import "time"

// Language is a language offered by the backend
type Language struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Category is a vocabulary category words can be generated for
type Category struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Tense is a grammatical tense sentences can be generated for
type Tense struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Word is a saved vocabulary pair
type Word struct {
	ID              int64     `json:"id"`
	Source          string    `json:"source"`
	Target          string    `json:"target"`
	ExampleSentence string    `json:"example_sentence,omitempty"`
	CategoryID      int64     `json:"category_id,omitempty"`
	Category        string    `json:"category,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// Flashcard converts a saved word into a review card
func (w Word) Flashcard() Flashcard {
	return Flashcard{
		Word:            w.Source,
		Translation:     w.Target,
		ExampleSentence: w.ExampleSentence,
		Category:        w.Category,
	}
}

// Sentence is a generated cloze sentence
type Sentence struct {
	Text        string `json:"sentence"`
	Answer      string `json:"answer"`
	Translation string `json:"translation,omitempty"`
	Tense       string `json:"tense,omitempty"`
}

// LanguagePair is the user's native/target language selection
type LanguagePair struct {
	NativeLanguage string `json:"native_lang"`
	TargetLanguage string `json:"target_lang"`
}

// Valid reports whether both languages are set
func (p LanguagePair) Valid() bool {
	return p.NativeLanguage != "" && p.TargetLanguage != ""
}

// Profile is the backend's view of the current user
type Profile struct {
	ID             string `json:"id"`
	Email          string `json:"email"`
	Username       string `json:"username,omitempty"`
	NativeLanguage string `json:"native_lang,omitempty"`
	TargetLanguage string `json:"target_lang,omitempty"`
}

// Languages returns the profile's saved language pair
func (p Profile) Languages() LanguagePair {
	return LanguagePair{NativeLanguage: p.NativeLanguage, TargetLanguage: p.TargetLanguage}
}

// User converts the profile into the session's user record
func (p Profile) User() User {
	return User{ID: p.ID, Email: p.Email, DisplayName: p.Username}
}

// GenerateRequest asks the backend to generate words or sentences.
// Exactly one of Category or Tense is expected.
type GenerateRequest struct {
	NativeLanguage string `json:"native_lang"`
	TargetLanguage string `json:"target_lang"`
	Category       string `json:"category,omitempty"`
	Tense          string `json:"tense,omitempty"`
	APIKey         string `json:"api_key,omitempty"`
}
