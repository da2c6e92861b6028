// Package services implements HTTP clients for the external providers the
// batch jobs talk to.
//
// Three providers are covered:
//
//   - [LastFMService] : the chart provider. Wraps the chart.gettoptracks
//     endpoint of the Last.fm API and normalizes its string-typed numeric
//     payload into [models.ChartEntry] values.
//   - [SpotifyService] : client-credentials access to the Spotify Web API,
//     used by the new-releases probe job.
//   - [DiscordNotifier] : fire-and-forget operator alerts via a Discord
//     webhook.
//
// All clients retry transient failures (transport errors, 5xx, 429) with
// bounded exponential backoff and honor context cancellation between
// attempts. Malformed payloads are never retried; a schema mismatch does not
// fix itself.
package services
