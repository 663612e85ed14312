package db

import (
	"github.com/pkg/errors"
)

// DefaultOrganization is created along with the schema. Jobs without an
// organization belong to it.
const DefaultOrganization = "default"

// Organization groups users.
type Organization struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// OrganizationExists reports whether the organization is known.
func (c *ClusterTx) OrganizationExists(id string) (bool, error) {
	n, err := c.query.Count(c.tx, "organizations", "id=?", id)
	if err != nil {
		return false, errors.WithStack(err)
	}
	return n > 0, nil
}

// OrganizationAdd creates or renames an organization.
func (c *ClusterTx) OrganizationAdd(organization Organization) error {
	_, err := c.tx.Exec(
		"INSERT INTO organizations (id, name) VALUES (?, ?) ON CONFLICT(id) DO UPDATE SET name=excluded.name",
		organization.ID, organization.Name,
	)
	return errors.WithStack(err)
}

// Organizations returns all the organizations.
func (c *ClusterTx) Organizations() ([]Organization, error) {
	var organizations []Organization
	dest := func(i int) []interface{} {
		organizations = append(organizations, Organization{})
		return []interface{}{&organizations[i].ID, &organizations[i].Name}
	}
	stmt := "SELECT id, name FROM organizations ORDER BY id"
	if err := c.query.SelectObjects(c.tx, dest, stmt); err != nil {
		return nil, errors.Wrap(err, "failed to fetch organizations")
	}
	return organizations, nil
}

// UserExists reports whether the user is a member of the organization.
func (c *ClusterTx) UserExists(username, organization string) (bool, error) {
	n, err := c.query.Count(c.tx, "users", "username=? AND organization_id=?", username, organization)
	if err != nil {
		return false, errors.WithStack(err)
	}
	return n > 0, nil
}

// UserAdd makes the user a member of the organization.
func (c *ClusterTx) UserAdd(username, organization string) error {
	exists, err := c.OrganizationExists(organization)
	if err != nil {
		return err
	}
	if !exists {
		return ErrNoSuchObject
	}
	_, err = c.tx.Exec(
		"INSERT OR IGNORE INTO users (username, organization_id) VALUES (?, ?)",
		username, organization,
	)
	return errors.WithStack(err)
}

// UserRemove revokes the user's membership of the organization.
func (c *ClusterTx) UserRemove(username, organization string) error {
	return c.exec("DELETE FROM users WHERE username=? AND organization_id=?", username, organization)
}
