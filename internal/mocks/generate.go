package mocks

//go:generate go tool mockgen -destination=portalclient.go -package=mocks github.com/educates/lookup-service/internal/portal Client
