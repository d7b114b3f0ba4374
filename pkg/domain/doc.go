// Package domain contains the entities subhunt works with: the validated target
// domain, the scan mode and the set of discovered subdomains. They carry no
// infrastructure concerns so the client, storage and CLI layers can share them.
package domain
