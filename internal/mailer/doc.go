// Package mailer renders drip templates and hands finished messages to a
// mail provider (SendGrid or SES).
package mailer
