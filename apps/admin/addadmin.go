package main

import (
	"context"

	"github.com/renshulabs/academy/core/admin"
)

// addAdmin updates or creates an allow-list entry.
func (cli *commandLine) addAdmin(email, name, pwd string) error {
	_, err := cli.adminSvc.Register(context.Background(), admin.NewAdmin{
		Email:    email,
		Name:     name,
		Password: pwd,
	})
	return err
}
