// Package domain contains the core business entities, value objects, and
// domain logic of the application: tasks, their audit log entries, and the
// restricted user projection that travels with a task. It is independent of
// any specific infrastructure or delivery mechanism.
package domain
