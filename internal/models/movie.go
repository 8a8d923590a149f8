package models

// Movie is an entry of the internal catalog, deduplicated on TMDBId.
type Movie struct {
	ID          int     `json:"id"`
	TMDBId      string  `json:"tmdb_id"`
	Title       string  `json:"title"`
	ReleaseYear *int    `json:"release_year"`
	PosterURL   *string `json:"poster_url"`
}

// AddMovieRequest is the request body for adding a movie to the catalog.
// Only TMDBId is required; missing fields are fetched from TMDB.
type AddMovieRequest struct {
	TMDBId      string  `json:"tmdb_id"`
	Title       string  `json:"title"`
	ReleaseYear *int    `json:"release_year"`
	PosterURL   *string `json:"poster_url"`
}

// TMDBImageBaseW500 prefixes TMDB poster paths to build poster URLs.
const TMDBImageBaseW500 = "https://image.tmdb.org/t/p/w500"
