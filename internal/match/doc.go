// Package match decides whether a destination search hit is the same song as a source track.
//
// # Normalization
//
// [Normalize] builds the comparison string "artist title" from a [models.Track]. The album is left out because
// catalogs disagree on album naming far more than on artist and title. The same string is used as the
// destination search query.
//
// # Scoring
//
// [TokenSortRatio] folds both strings (accents stripped, lower-cased, punctuation removed), sorts their tokens and
// compares them by Levenshtein distance, producing a score between 0 and 100. Token sorting makes the score
// insensitive to word order, so "Queen Bohemian Rhapsody" and "Bohemian Rhapsody Queen" score 100.
//
// # Selection
//
// [Matcher.BestMatch] picks the highest scoring candidate. Ties go to the candidate that appeared first.
// A candidate is only accepted when its score is strictly greater than MinConfidence.
package match
