// internal/model/city.go
package model

type City struct {
	State string `db:"state" json:"state"`
	City  string `db:"city" json:"city"`
}
