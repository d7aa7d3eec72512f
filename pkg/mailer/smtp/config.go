package smtp

// Config holds SMTP delivery configuration.
type Config struct {
	Host        string
	Port        int
	Username    string
	Password    string
	SenderEmail string
	SenderName  string
}
