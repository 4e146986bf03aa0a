// Package educontent provides the domain layer of the educational content
// service: content records, the access control policy, the upload pipeline
// and the Service that orchestrates them.
//
// Persistence and file storage are pluggable. Repository implementations
// (memory, Postgres) live under repo/, blob stores (memory, filesystem, S3)
// under storage/. The HTTP boundary lives in api/ and identity in auth/.
//
// # Visibility
//
// Published records are visible to everyone. Draft and archived records are
// visible only to their owner and to admins, and only the owner or an admin
// may update or delete a record. The Decide function is the single place
// where that rule is evaluated.
package educontent
